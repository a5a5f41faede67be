package credentials_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docuwatchco/docuwatch/pkg/credentials"
)

var _ = Describe("Manager", func() {
	var mgr *credentials.Manager

	BeforeEach(func() {
		var err error
		mgr, err = credentials.NewManager(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns empty credentials when no file exists", func() {
		creds, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Token).To(BeEmpty())
	})

	It("round-trips a token through SetToken", func() {
		Expect(mgr.SetToken("https://docs.example.com", "tok-abc")).To(Succeed())

		creds, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Server).To(Equal("https://docs.example.com"))
		Expect(creds.Token).To(Equal("tok-abc"))
	})

	It("writes the credentials file with 0600 permissions", func() {
		Expect(mgr.SetToken("srv", "secret")).To(Succeed())

		info, err := os.Stat(mgr.Path())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("prefers the DOCUWATCH_TOKEN environment variable", func() {
		Expect(mgr.SetToken("srv", "from-file")).To(Succeed())
		GinkgoT().Setenv(credentials.EnvToken, "from-env")

		tok, err := mgr.Token()
		Expect(err).NotTo(HaveOccurred())
		Expect(tok).To(Equal("from-env"))
	})
})

var _ = Describe("StaticProvider", func() {
	It("always returns its token", func() {
		p := credentials.StaticProvider("tok-static")
		tok, err := p.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(tok).To(Equal("tok-static"))
	})
})

var _ = Describe("FileProvider", func() {
	It("serves the stored token and picks up changes", func() {
		mgr, err := credentials.NewManager(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetToken("srv", "tok-v1")).To(Succeed())

		p, err := credentials.NewFileProvider(mgr, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		tok, err := p.Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(tok).To(Equal("tok-v1"))

		Expect(mgr.SetToken("srv", "tok-v2")).To(Succeed())

		Eventually(func() string {
			tok, _ := p.Token(context.Background())
			return tok
		}).Should(Equal("tok-v2"))
	})
})
