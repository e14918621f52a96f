package source

import (
	"github.com/nrhtr/dockerstats/pkg/types"
)

// containerState tracks one container's lifecycle and polling-task status.
//
// The generation counter opens a new epoch on every "became running"
// transition, letting a completion report from an old epoch be told apart
// from one that has seen the latest transition.
//
// Invariant: pendingInfo is non-nil if and only if no polling task is
// currently active for this container.
type containerState struct {
	pendingInfo *containerMetricInfo
	running     bool
	generation  uint64
}

// newRunningState creates the initial tracker state for a freshly
// discovered or started container.
func newRunningState() *containerState {
	return &containerState{running: true}
}

// markRunning records a start/unpause transition and opens a new epoch.
func (s *containerState) markRunning() {
	s.running = true
	s.generation++
}

// markStopped records a die/pause transition. The generation is unchanged.
func (s *containerState) markStopped() {
	s.running = false
}

func (s *containerState) isRunning() bool {
	return s.running
}

// returnInfo stores the info handed back by a finished polling task and
// reports whether a replacement task must be spawned: always when the
// container is marked running, and also when the info's generation predates
// the tracker's, since that means a running transition raced the finished
// task and was never observed by it.
//
// A second returnInfo without an intervening takeInfo means two tasks were
// active for one container, which the design rules out; it panics.
func (s *containerState) returnInfo(info *containerMetricInfo) bool {
	if s.pendingInfo != nil {
		panic("containerState: completion reported while another task was pending for " +
			string(info.id))
	}

	restart := s.running || info.generation < s.generation
	s.pendingInfo = info

	return restart
}

// takeInfo removes and returns the stored info, stamped with the tracker's
// current generation so the task spawned from it carries the latest epoch.
// It returns nil while a task is active.
func (s *containerState) takeInfo() *containerMetricInfo {
	info := s.pendingInfo
	if info == nil {
		return nil
	}

	s.pendingInfo = nil
	info.generation = s.generation

	return info
}

// containerMetricInfo is the snapshot handed to a polling task: the
// container's identity, the epoch it was spawned in, and the tags stamped
// onto every record it emits.
type containerMetricInfo struct {
	id         types.ContainerID
	name       string
	generation uint64
	tags       map[string]string
}

func newContainerMetricInfo(
	id types.ContainerID,
	metadata types.ContainerMetadata,
	hostKey, hostname string,
) *containerMetricInfo {
	tags := map[string]string{
		"container_id":   string(id),
		"container_name": metadata.Name,
		"image_name":     metadata.Image,
	}
	if hostKey != "" && hostname != "" {
		tags[hostKey] = hostname
	}

	return &containerMetricInfo{
		id:   id,
		name: metadata.Name,
		tags: tags,
	}
}
