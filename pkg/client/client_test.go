package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/client"
	"github.com/docuwatchco/docuwatch/pkg/credentials"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		received *http.Request
		body     []byte
	)

	BeforeEach(func() {
		received = nil
		body = nil
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[]`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r
			if r.Body != nil {
				buf := make([]byte, 4096)
				n, _ := r.Body.Read(buf)
				body = buf[:n]
			}
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func(opts ...client.Option) *client.Client {
		c, err := client.New(server.URL, opts...)
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	Describe("New", func() {
		It("rejects an empty target", func() {
			_, err := client.New("")
			Expect(err).To(HaveOccurred())
		})

		It("rejects a target without a scheme", func() {
			_, err := client.New("localhost:8000")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DocumentStatus", func() {
		It("fetches the status snapshot", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"embedding","progress":0.6,"message":"embedding chunks"}`))
			}

			status, err := newClient().DocumentStatus(context.Background(), "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Method).To(Equal(http.MethodGet))
			Expect(received.URL.Path).To(Equal("/api/documents/doc-1/status"))
			Expect(status.Status).To(Equal("embedding"))
			Expect(status.Progress).To(BeNumerically("~", 0.6))
			Expect(status.TerminalSuccess()).To(BeFalse())
			Expect(status.TerminalFailure()).To(BeFalse())
		})

		It("treats indexed and completed as terminal success", func() {
			Expect(client.OperationStatus{Status: "indexed"}.TerminalSuccess()).To(BeTrue())
			Expect(client.OperationStatus{Status: "completed"}.TerminalSuccess()).To(BeTrue())
			Expect(client.OperationStatus{Status: "failed"}.TerminalFailure()).To(BeTrue())
			Expect(client.OperationStatus{Status: "error"}.TerminalFailure()).To(BeTrue())
		})
	})

	Describe("StartBatch", func() {
		It("posts the document ids and returns the job", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"job_id":"job-9"}`))
			}

			job, err := newClient().StartBatch(context.Background(), []string{"a", "b"})
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Method).To(Equal(http.MethodPost))
			Expect(received.URL.Path).To(Equal("/api/documents/batch"))
			Expect(received.Header.Get("Content-Type")).To(Equal("application/json"))

			var req map[string][]string
			Expect(json.Unmarshal(body, &req)).To(Succeed())
			Expect(req["document_ids"]).To(Equal([]string{"a", "b"}))
			Expect(job.ID).To(Equal("job-9"))
		})

		It("requires at least one document", func() {
			_, err := newClient().StartBatch(context.Background(), nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("StartQA", func() {
		It("posts the question", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"job_id":"qa-1"}`))
			}

			job, err := newClient().StartQA(context.Background(), client.QARequest{
				Question: "what was decided?",
				Agentic:  true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(received.URL.Path).To(Equal("/api/qa"))

			var req map[string]any
			Expect(json.Unmarshal(body, &req)).To(Succeed())
			Expect(req["question"]).To(Equal("what was decided?"))
			Expect(req["agentic"]).To(Equal(true))
			Expect(job.ID).To(Equal("qa-1"))
		})

		It("requires a question", func() {
			_, err := newClient().StartQA(context.Background(), client.QARequest{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("authorization", func() {
		It("attaches the provider token as a bearer header", func() {
			c := newClient(client.WithProvider(credentials.StaticProvider("tok-123")))
			_, err := c.ListDocuments(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Header.Get("Authorization")).To(Equal("Bearer tok-123"))
		})

		It("sends no header without a provider", func() {
			_, err := newClient().ListDocuments(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Header.Get("Authorization")).To(BeEmpty())
		})
	})

	Describe("error responses", func() {
		It("surfaces the server's error payload", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"document not found"}`))
			}

			_, err := newClient().DocumentStatus(context.Background(), "missing")
			Expect(err).To(MatchError(ContainSubstring("document not found")))
			Expect(err).To(MatchError(ContainSubstring("404")))
		})

		It("falls back to the raw body for non-JSON errors", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream unavailable"))
			}

			_, err := newClient().ListMeetings(context.Background())
			Expect(err).To(MatchError(ContainSubstring("upstream unavailable")))
		})
	})

	Describe("stream URLs", func() {
		It("builds document and job stream URLs", func() {
			c := newClient()
			Expect(c.DocumentStreamURL("doc-1")).To(Equal(server.URL + "/api/documents/doc-1/stream"))
			Expect(c.JobStreamURL("job-2")).To(Equal(server.URL + "/api/jobs/job-2/stream"))
		})

		It("escapes path segments", func() {
			c := newClient()
			Expect(c.DocumentStreamURL("a/b")).To(Equal(server.URL + "/api/documents/a%2Fb/stream"))
		})
	})
})
