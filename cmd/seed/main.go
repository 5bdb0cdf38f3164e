// Command seed loads a handful of demo cases, runs the duplicate scan for
// each, and prints the resulting candidates. Useful for local development
// against an empty database.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/pvtools/casedup/internal/config"
	"github.com/pvtools/casedup/internal/core/detect"
	"github.com/pvtools/casedup/internal/core/model"
	"github.com/pvtools/casedup/internal/logging"
	"github.com/pvtools/casedup/internal/store"
)

func main() {
	log := logging.Get()
	_ = godotenv.Load()

	cfg := config.Default()
	st, err := store.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer st.Close()

	ctx := context.Background()
	scanner := detect.NewScanner(st, cfg.Detection.MinScore)

	dob := time.Date(1964, 3, 12, 0, 0, 0, 0, time.UTC)
	demo := []model.Case{
		{
			SafetyReportID:  "US-DEMO-2024-0001",
			PatientInitials: "JMW",
			PatientDOB:      &dob,
			PatientSex:      "female",
			Country:         "US",
			SuspectDrug:     "Amoxicillin",
			Reactions:       model.StringList{"rash", "pruritus"},
			Narrative:       "Patient developed a generalized rash two days after starting amoxicillin for sinusitis.",
			ReceivedAt:      time.Now().UTC().Add(-48 * time.Hour),
			Status:          model.CaseStatusActive,
		},
		{
			SafetyReportID:  "US-DEMO-2024-0002",
			PatientInitials: "JMW",
			PatientDOB:      &dob,
			PatientSex:      "female",
			Country:         "US",
			SuspectDrug:     "Amoxicilin",
			Reactions:       model.StringList{"rash"},
			Narrative:       "Generalized rash reported two days after amoxicillin was started for a sinus infection.",
			ReceivedAt:      time.Now().UTC().Add(-24 * time.Hour),
			Status:          model.CaseStatusActive,
		},
		{
			SafetyReportID:  "GB-DEMO-2024-0003",
			PatientInitials: "RT",
			PatientSex:      "male",
			Country:         "GB",
			SuspectDrug:     "Metformin",
			Reactions:       model.StringList{"nausea", "diarrhoea"},
			Narrative:       "Gastrointestinal complaints within a week of metformin titration.",
			ReceivedAt:      time.Now().UTC(),
			Status:          model.CaseStatusActive,
		},
	}

	for i := range demo {
		if err := st.CreateCase(ctx, &demo[i]); err != nil {
			log.WithError(err).Fatalf("Failed to create case %s", demo[i].SafetyReportID)
		}
		fmt.Printf("created case %s (%s)\n", demo[i].ID, demo[i].SafetyReportID)

		found, err := scanner.ScanCase(ctx, demo[i].ID)
		if err != nil {
			log.WithError(err).Fatal("Scan failed")
		}
		for _, cand := range found {
			fmt.Printf("  candidate #%d: %s vs %s score=%.0f\n",
				cand.ID, cand.CaseID1, cand.CaseID2, cand.SimilarityScore)
		}
	}
}
