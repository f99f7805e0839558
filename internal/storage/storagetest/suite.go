// Package storagetest holds the behaviour every history backend must share.
package storagetest

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/storage"
)

// Suite runs the common storage contract against a backend.
// Embed it and set NewStorage in the embedding suite's SetupTest.
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Ctx context.Context
}

func (s *Suite) store() storage.Storage {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	if s.Ctx == nil {
		s.Ctx = context.Background()
	}
	return s.NewStorage()
}

func (s *Suite) TestEmptyHistory() {
	st := s.store()

	records, err := st.GetRecords(s.Ctx)
	s.Require().NoError(err)
	s.Empty(records)

	dates, err := st.GetDates(s.Ctx)
	s.Require().NoError(err)
	s.Empty(dates)
}

func (s *Suite) TestSaveAndGetRecords() {
	st := s.store()

	err := st.SaveLevels(s.Ctx, "2025-01-02", []model.MemberLevel{
		{Name: "Brenna", Level: 40},
		{Name: "Aldric", Level: 312},
	})
	s.Require().NoError(err)
	err = st.SaveLevels(s.Ctx, "2025-01-01", []model.MemberLevel{
		{Name: "Aldric", Level: 310},
	})
	s.Require().NoError(err)

	records, err := st.GetRecords(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]model.LevelRecord{
		{Date: "2025-01-01", Name: "Aldric", Level: 310},
		{Date: "2025-01-02", Name: "Aldric", Level: 312},
		{Date: "2025-01-02", Name: "Brenna", Level: 40},
	}, records)
}

func (s *Suite) TestSameDayOverwrites() {
	st := s.store()

	s.Require().NoError(st.SaveLevels(s.Ctx, "2025-01-01", []model.MemberLevel{{Name: "Aldric", Level: 310}}))
	s.Require().NoError(st.SaveLevels(s.Ctx, "2025-01-01", []model.MemberLevel{{Name: "Aldric", Level: 311}}))

	records, err := st.GetRecords(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]model.LevelRecord{{Date: "2025-01-01", Name: "Aldric", Level: 311}}, records)
}

func (s *Suite) TestGetDatesSortedAndDistinct() {
	st := s.store()

	for _, date := range []string{"2025-01-03", "2025-01-01", "2025-01-02", "2025-01-01"} {
		s.Require().NoError(st.SaveLevels(s.Ctx, date, []model.MemberLevel{{Name: "Aldric", Level: 1}}))
	}

	dates, err := st.GetDates(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]string{"2025-01-01", "2025-01-02", "2025-01-03"}, dates)
}

func (s *Suite) TestSaveNoLevelsIsNoop() {
	st := s.store()

	s.Require().NoError(st.SaveLevels(s.Ctx, "2025-01-01", nil))

	dates, err := st.GetDates(s.Ctx)
	s.Require().NoError(err)
	s.Empty(dates)
}

func (s *Suite) TestMaxLevelRoundTrips() {
	st := s.store()

	s.Require().NoError(st.SaveLevels(s.Ctx, "2025-01-01", []model.MemberLevel{{Name: "Cap", Level: 65535}}))

	records, err := st.GetRecords(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(65535, records[0].Level)
}
