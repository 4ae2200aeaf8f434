package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hseguardian/internal/store"
	"hseguardian/internal/utils"
	"hseguardian/pkg/types"
)

type fakeTrainingSeed struct {
	ID           string
	EmployeeName string
	EmployeeID   string
	Course       string
	Site         string
	CompletedAgo time.Duration
	ValidFor     time.Duration
}

var fakeTraining = []fakeTrainingSeed{
	{ID: "seed-training-0001", EmployeeName: "Ava Williams", EmployeeID: "EMP-1001", Course: "Working at Height", Site: "North Yard", CompletedAgo: 90 * 24 * time.Hour, ValidFor: 365 * 24 * time.Hour},
	{ID: "seed-training-0002", EmployeeName: "Liam Johnson", EmployeeID: "EMP-1002", Course: "Confined Space Entry", Site: "North Yard", CompletedAgo: 200 * 24 * time.Hour, ValidFor: 365 * 24 * time.Hour},
	{ID: "seed-training-0003", EmployeeName: "Noah Brown", EmployeeID: "EMP-1003", Course: "First Aid", Site: "Dockside", CompletedAgo: 340 * 24 * time.Hour, ValidFor: 365 * 24 * time.Hour},
	{ID: "seed-training-0004", EmployeeName: "Mia Davis", EmployeeID: "EMP-1004", Course: "Fire Watch", Site: "Dockside", CompletedAgo: 30 * 24 * time.Hour, ValidFor: 730 * 24 * time.Hour},
	{ID: "seed-training-0005", EmployeeName: "Elijah Garcia", EmployeeID: "EMP-1005", Course: "Working at Height", Site: "Workshop", CompletedAgo: 400 * 24 * time.Hour, ValidFor: 365 * 24 * time.Hour},
}

// SeedTrainingRoster upserts a small roster so the dashboard and expiry
// endpoints have data in a fresh environment.
func SeedTrainingRoster(ctx context.Context, trainingRepo *store.TrainingRepository) error {
	seeded := 0
	for _, fake := range fakeTraining {
		completed := time.Now().Add(-fake.CompletedAgo)
		expires := completed.Add(fake.ValidFor)

		existing, err := trainingRepo.Record(ctx, fake.ID)
		if err != nil {
			if !errors.Is(err, types.ErrTrainingNotFound) {
				return fmt.Errorf("failed to fetch training record %s: %w", fake.ID, err)
			}

			record := &types.TrainingRecord{
				ID:           fake.ID,
				EmployeeName: fake.EmployeeName,
				EmployeeID:   fake.EmployeeID,
				Course:       fake.Course,
				Site:         fake.Site,
				CompletedAt:  utils.TimePtr(completed),
				ExpiresAt:    utils.TimePtr(expires),
			}

			if err := trainingRepo.CreateRecord(ctx, record); err != nil {
				return fmt.Errorf("failed to create training record %s: %w", fake.ID, err)
			}
			seeded++
			continue
		}

		existing.EmployeeName = fake.EmployeeName
		existing.EmployeeID = fake.EmployeeID
		existing.Course = fake.Course
		existing.Site = fake.Site
		existing.CompletedAt = utils.TimePtr(completed)
		existing.ExpiresAt = utils.TimePtr(expires)

		if err := trainingRepo.UpdateRecord(ctx, existing); err != nil {
			return fmt.Errorf("failed to update training record %s: %w", fake.ID, err)
		}
		seeded++
	}

	fmt.Printf("Training roster seeded: %d upserted\n", seeded)
	return nil
}
