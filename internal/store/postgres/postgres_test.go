package postgres_test

import (
	"context"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/store/postgres"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		db    *sqlx.DB
		mock  sqlmock.Sqlmock
		store *postgres.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		mockDB, mockSQL, err := sqlmock.New()
		Expect(err).ToNot(HaveOccurred())

		db = sqlx.NewDb(mockDB, "sqlmock")
		mock = mockSQL
		store = postgres.New(db)
	})

	Describe("UpsertCrawlCandidate", func() {
		It("inserts a candidate and returns its id", func() {
			mock.ExpectExec("INSERT INTO crawl_candidates").
				WillReturnResult(sqlmock.NewResult(0, 1))

			candidateID, err := store.UpsertCrawlCandidate(ctx, domain.CrawlCandidate{
				RunID:           "run-1",
				MunicipalityKey: "teltow",
				DiscoverySource: domain.DiscoveryRIS,
				URL:             "https://ris.teltow.de/si0100",
				PrefilterScore:  0.8,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(candidateID).ToNot(BeEmpty())
			Expect(mock.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("MunicipalitiesDue", func() {
		It("returns municipalities past their rescan interval", func() {
			rows := sqlmock.NewRows([]string{"municipality_key", "name", "county", "state", "official_website_url"}).
				AddRow("teltow", "Teltow", "Potsdam-Mittelmark", "Brandenburg", "https://www.teltow.de")

			mock.ExpectQuery("SELECT municipality_key, name, county, state, official_website_url").
				WillReturnRows(rows)

			seeds, err := store.MunicipalitiesDue(ctx, 7*24*time.Hour, 10)

			Expect(err).ToNot(HaveOccurred())
			Expect(seeds).To(HaveLen(1))
			Expect(seeds[0].MunicipalityKey).To(Equal("teltow"))
			Expect(mock.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("FindProjectByParcelToken", func() {
		It("reports no match when the query returns no rows", func() {
			mock.ExpectQuery("SELECT project_id FROM project_entities").
				WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

			projectID, found, err := store.FindProjectByParcelToken(ctx, "teltow", "Flur 3 Flurstueck 12")

			Expect(err).ToNot(HaveOccurred())
			Expect(found).To(BeFalse())
			Expect(projectID).To(BeEmpty())
		})

		It("returns the matched project id", func() {
			mock.ExpectQuery("SELECT project_id FROM project_entities").
				WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow("proj-1"))

			projectID, found, err := store.FindProjectByParcelToken(ctx, "teltow", "12")

			Expect(err).ToNot(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(projectID).To(Equal("proj-1"))
		})
	})

	Describe("RecordCrawlStats", func() {
		It("persists counts and timings as JSON", func() {
			mock.ExpectExec("INSERT INTO crawl_stats").
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := store.RecordCrawlStats(ctx, domain.CrawlStats{
				RunID:           "run-1",
				MunicipalityKey: "teltow",
				SourceType:      domain.DiscoveryRIS,
				Status:          domain.StatusSuccess,
				Counts:          map[string]interface{}{"candidates": 3},
				Timings:         map[string]float64{"total_seconds": 12.5},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(mock.ExpectationsWereMet()).To(Succeed())
		})
	})
})
