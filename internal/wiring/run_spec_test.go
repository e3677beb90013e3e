package wiring

import (
	"context"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"dealscout/adapters/scripted"
	"dealscout/internal/decision"
	"dealscout/internal/evidence"
	"dealscout/internal/orchestrate"
	"dealscout/internal/report"
	"dealscout/internal/store"
)

var _ = ginkgo.Describe("Run", func() {
	var (
		st  *store.SqlStore
		dir string
	)

	ginkgo.BeforeEach(func() {
		dir = ginkgo.GinkgoT().TempDir()
		var err error
		st, err = store.Open(filepath.Join(dir, "dealscout.db"))
		gomega.Expect(err).To(gomega.Succeed())
		ginkgo.DeferCleanup(st.Close)
	})

	run := func(name string) *Result {
		sc, err := scripted.LoadScenario(name)
		gomega.Expect(err).To(gomega.Succeed())
		a, err := scripted.New(sc)
		gomega.Expect(err).To(gomega.Succeed())
		set, err := sc.QuestionSet()
		gomega.Expect(err).To(gomega.Succeed())
		orc, err := orchestrate.New(a.Capabilities(), a, a, orchestrate.DefaultPolicies())
		gomega.Expect(err).To(gomega.Succeed())

		res, err := Run(context.Background(), Deps{
			Orchestrator: orc,
			Store:        st,
			Renderers:    []report.Renderer{report.JSONRenderer{Dir: dir}},
		}, orchestrate.Request{Startup: sc.Startup, Questions: set})
		gomega.Expect(err).To(gomega.Succeed())
		return res
	}

	ginkgo.It("invests in the strong-signal startup and persists the ledger", func() {
		res := run("strong-signal")
		gomega.Expect(res.Report.Decision.Decision).To(gomega.Equal(decision.Yes))

		rows, err := st.ListLedger(res.Report.RunID)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(rows).To(gomega.HaveLen(6))
		for _, r := range rows {
			gomega.Expect(r.Status).To(gomega.Equal(string(evidence.StatusSuccess)))
		}
	})

	ginkgo.It("passes on thin evidence and records the unresolved questions", func() {
		res := run("thin-evidence")
		gomega.Expect(res.Report.Decision.Decision).To(gomega.Equal(decision.No))
		gomega.Expect(res.Report.Summary.Failed).To(gomega.Equal(3))

		got, err := st.GetReport(res.Report.RunID)
		gomega.Expect(err).To(gomega.Succeed())
		entry, ok := got.Ledger.Get("customer_willingness_to_pay")
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(entry.Answer).To(gomega.Equal(evidence.AnswerInsufficientData))
		gomega.Expect(entry.FallbackUsed).To(gomega.BeTrue())
	})

	ginkgo.It("lists stored runs newest first", func() {
		run("strong-signal")
		run("competitor-outage")
		runs, err := st.ListReports(0)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(runs).To(gomega.HaveLen(2))
		gomega.Expect(runs[0].CreatedAt.Before(runs[1].CreatedAt)).To(gomega.BeFalse())
	})
})
