package classifier_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/extract/classifier"
)

var _ = Describe("IsCandidate", func() {
	It("accepts a document combining a procedure term and an explicit BESS term", func() {
		Expect(classifier.IsCandidate(
			"Die Gemeindevertretung fasst den Aufstellungsbeschluss für den Bebauungsplan Batteriespeicher Nord.",
			"",
		)).To(BeTrue())
	})

	It("rejects a document with a negative storage term and no explicit BESS term", func() {
		Expect(classifier.IsCandidate(
			"Genehmigung für ein Regenrückhaltebecken am Ortsrand, Aufstellungsbeschluss Bebauungsplan.",
			"",
		)).To(BeFalse())
	})

	It("rejects a document with no procedure term at all", func() {
		Expect(classifier.IsCandidate("Batteriespeicher Energiespeicher Großspeicher", "")).To(BeFalse())
	})

	It("accepts via zoning + energy context even without an explicit BESS term", func() {
		Expect(classifier.IsCandidate(
			"Bebauungsplan Sondergebiet Energie für Anlagen zur Energieversorgung, Satzungsbeschluss",
			"",
		)).To(BeTrue())
	})
})

var _ = Describe("Classify", func() {
	recent := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	It("R1: marks relevant when an explicit BESS term meets a procedure term", func() {
		result := classifier.Classify(
			"Der Bauausschuss beschließt den Bauvorbescheid für den Batteriespeicher am Standort Nord.",
			"",
			recent,
		)
		Expect(result.IsRelevant).To(BeTrue())
		Expect(result.ProcedureType).To(Equal(domain.ProcedureType("PERMIT_BAUVORBESCHEID")))
	})

	It("R2: title-only explicit BESS term is relevant for dates on/after 2023-01-01", func() {
		result := classifier.Classify("irrelevant body text", "Energiespeicher Projekt XY", recent)
		Expect(result.IsRelevant).To(BeTrue())
	})

	It("R2 does not fire for dates before the 2023-01-01 cutoff", func() {
		old := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
		result := classifier.Classify("keine weiteren Hinweise", "Energiespeicher Projekt XY", old)
		Expect(result.IsRelevant).To(BeFalse())
	})

	It("R3: ambiguous Speicher is relevant given two+ grid terms and a procedure term", func() {
		result := classifier.Classify(
			"Die Sitzungsvorlage beschreibt die Speicheranlage mit Umspannwerk und Netzanschluss, Bauvorbescheid folgt.",
			"",
			recent,
		)
		Expect(result.IsRelevant).To(BeTrue())
		Expect(result.AmbiguityFlag).To(BeTrue())
	})

	It("rejects a negative-term-only document even with a procedure term", func() {
		result := classifier.Classify(
			"Aufstellungsbeschluss für eine Lagerhalle mit Löschwasser-Wärmespeicher.",
			"",
			recent,
		)
		Expect(result.IsRelevant).To(BeFalse())
		Expect(result.ConfidenceScore).To(Equal(0.0))
	})

	It("tags §35 with priority over §34/§36 when all are present", func() {
		result := classifier.Classify(
			"Bauvorbescheid Batteriespeicher im Außenbereich gemäß § 35 BauGB, außerdem § 34 BauGB und § 36 BauGB erwähnt.",
			"",
			recent,
		)
		Expect(result.LegalBasis).To(Equal("§35"))
	})

	It("tags PV+BESS project components", func() {
		result := classifier.Classify(
			"Bauvorbescheid für Photovoltaik-Freiflächenanlage mit Batteriespeicher.",
			"",
			recent,
		)
		Expect(result.ProjectComponents).To(Equal(domain.ComponentsPVBESS))
	})

	It("flags review_recommended in the medium-confidence band", func() {
		result := classifier.Classify(
			"Aufstellungsbeschluss für eine Speicheranlage mit Wechselrichter und Transformator.",
			"",
			recent,
		)
		Expect(result.IsRelevant).To(BeTrue())
		Expect(result.ConfidenceScore).To(BeNumerically("~", 0.60, 1e-9))
		Expect(result.ReviewRecommended).To(BeTrue())
	})

	It("returns no snippet longer than 250 characters", func() {
		longPadding := make([]byte, 400)
		for i := range longPadding {
			longPadding[i] = 'x'
		}
		result := classifier.Classify(
			string(longPadding)+" Batteriespeicher Bauvorbescheid "+string(longPadding),
			"",
			recent,
		)
		for _, snippet := range result.EvidenceSnippets {
			Expect(len(snippet.Text)).To(BeNumerically("<=", 250))
		}
	})
})
