package container

import (
	"context"
	"net/http"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	dockerContainer "github.com/docker/docker/api/types/container"
	dockerEvents "github.com/docker/docker/api/types/events"
	dockerClient "github.com/docker/docker/client"

	"github.com/nrhtr/dockerstats/pkg/types"
)

var _ = ginkgo.Describe("the runtime client", func() {
	var docker *dockerClient.Client
	var mockServer *ghttp.Server
	ginkgo.BeforeEach(func() {
		mockServer = ghttp.NewServer()
		docker, _ = dockerClient.NewClientWithOpts(
			dockerClient.WithHost(mockServer.URL()),
			dockerClient.WithHTTPClient(mockServer.HTTPTestServer.Client()))
	})
	ginkgo.AfterEach(func() {
		mockServer.Close()
	})

	ginkgo.When("listing running containers", func() {
		ginkgo.It("strips the daemon's leading name slashes", func() {
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/json")),
				ghttp.RespondWithJSONEncoded(http.StatusOK, []dockerContainer.Summary{
					{
						ID:    "b978af0b858aa8855cce46b628817d4ed58e58f2c4f66c9b9c5449134ed4c008",
						Names: []string{"/running"},
					},
					{
						ID:    "1f6b79d2aff23244382026c76f4995851322bed5f9c50631620162f6f9aafbd6",
						Names: []string{"/web", "/web-alias"},
					},
				}),
			))

			summaries, err := (&client{api: docker}).ListRunningContainers(
				context.Background(), nil, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(summaries).To(gomega.HaveLen(2))
			gomega.Expect(summaries[0].Names).To(gomega.ConsistOf("running"))
			gomega.Expect(summaries[1].Names).To(gomega.ConsistOf("web", "web-alias"))
		})

		ginkgo.It("propagates daemon failures", func() {
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/json")),
				ghttp.RespondWith(http.StatusInternalServerError, nil),
			))

			_, err := (&client{api: docker}).ListRunningContainers(
				context.Background(), nil, nil)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.When("inspecting a container", func() {
		ginkgo.It("resolves the name and familiar image reference", func() {
			cid := types.ContainerID("b978af0b858aa8855cce46b628817d4ed58e58f2c4f66c9b9c5449134ed4c008")
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/"+string(cid)+"/json")),
				ghttp.RespondWithJSONEncoded(http.StatusOK, dockerContainer.InspectResponse{
					ContainerJSONBase: &dockerContainer.ContainerJSONBase{
						ID:   string(cid),
						Name: "/web",
					},
					Config: &dockerContainer.Config{
						Image: "docker.io/library/nginx:latest",
					},
				}),
			))

			metadata, err := (&client{api: docker}).InspectContainer(context.Background(), cid)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(metadata.Name).To(gomega.Equal("web"))
			gomega.Expect(metadata.Image).To(gomega.Equal("nginx:latest"))
		})

		ginkgo.It("reports a missing container", func() {
			cid := types.ContainerID("badc1dbadc1dbadc1dbadc1dbadc1dbadc1dbadc1dbadc1dbadc1dbadc1dbadc")
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/"+string(cid)+"/json")),
				ghttp.RespondWithJSONEncoded(http.StatusNotFound, struct {
					Message string `json:"message"`
				}{Message: "No such container: " + string(cid)}),
			))

			_, err := (&client{api: docker}).InspectContainer(context.Background(), cid)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.When("streaming stats", func() {
		ginkgo.It("decodes payloads until the feed ends", func() {
			cid := types.ContainerID("b978af0b858aa8855cce46b628817d4ed58e58f2c4f66c9b9c5449134ed4c008")
			raw := `{"num_procs":3,"pids_stats":{"current":3},"memory_stats":{"usage":2048}}` + "\n" +
				`{"num_procs":3,"pids_stats":{"current":4},"memory_stats":{"usage":4096}}`
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/"+string(cid)+"/stats")),
				ghttp.RespondWith(http.StatusOK, raw),
			))

			results, err := (&client{api: docker}).Stats(context.Background(), cid)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			first := <-results
			gomega.Expect(first.Err).ToNot(gomega.HaveOccurred())
			gomega.Expect(first.Payload.PidsStats.Current).To(gomega.HaveValue(gomega.BeEquivalentTo(3)))

			second := <-results
			gomega.Expect(second.Err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second.Payload.MemoryStats.Usage).To(gomega.HaveValue(gomega.BeEquivalentTo(4096)))

			gomega.Eventually(results).Should(gomega.BeClosed())
		})

		ginkgo.It("delivers a decode failure as the final element", func() {
			cid := types.ContainerID("ae8964ba86c7cd7522cf84e09781343d88e0e3543281c747d88b27e246578b65")
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/"+string(cid)+"/stats")),
				ghttp.RespondWith(http.StatusOK, `{"num_procs":1}garbage`),
			))

			results, err := (&client{api: docker}).Stats(context.Background(), cid)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			first := <-results
			gomega.Expect(first.Err).ToNot(gomega.HaveOccurred())

			final := <-results
			gomega.Expect(final.Err).To(gomega.HaveOccurred())
			gomega.Eventually(results).Should(gomega.BeClosed())
		})
	})

	ginkgo.When("watching lifecycle events", func() {
		ginkgo.It("translates event messages and surfaces the feed ending", func() {
			raw := `{"Type":"container","Action":"start","Actor":{"ID":"b978af0b858a","Attributes":{"name":"running"}}}` + "\n" +
				`{"Type":"container","Action":"die","Actor":{"ID":"b978af0b858a","Attributes":{"name":"running"}}}`
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", gomega.HaveSuffix("/events")),
				ghttp.RespondWith(http.StatusOK, raw),
			))

			events, errs := (&client{api: docker}).Events(
				context.Background(), nil, nil, time.Now())

			var received []types.LifecycleEvent
			for event := range events {
				received = append(received, event)
			}

			gomega.Expect(received).To(gomega.HaveLen(2))
			gomega.Expect(received[0].Action).To(gomega.Equal("start"))
			gomega.Expect(received[0].Actor.ID).To(gomega.Equal("b978af0b858a"))
			gomega.Expect(received[0].Actor.Attributes).To(gomega.HaveKeyWithValue("name", "running"))
			gomega.Expect(received[1].Action).To(gomega.Equal("die"))

			// The upstream feed closing is not a clean end for a source that
			// must watch forever, so it arrives as an error.
			gomega.Eventually(errs).Should(gomega.Receive())
		})
	})
})

var _ = ginkgo.Describe("translateEvent", func() {
	ginkgo.It("copies the action and actor", func() {
		event := translateEvent(dockerEvents.Message{
			Action: "pause",
			Actor: dockerEvents.Actor{
				ID:         "25e75393800b",
				Attributes: map[string]string{"image": "nginx"},
			},
		})

		gomega.Expect(event.Action).To(gomega.Equal("pause"))
		gomega.Expect(event.Actor.ID).To(gomega.Equal("25e75393800b"))
		gomega.Expect(event.Actor.Attributes).To(gomega.HaveKeyWithValue("image", "nginx"))
	})
})
