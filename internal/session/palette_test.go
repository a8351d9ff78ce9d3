package session

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func statuses(entries []models.PaletteEntry) []models.PaletteStatus {
	out := make([]models.PaletteStatus, len(entries))
	for i, e := range entries {
		out[i] = e.Status
	}
	return out
}

func TestSession_Palette(t *testing.T) {
	f := newFixture(sampleQuestions(), 0)
	s := f.session

	assert.Equal(t, []models.PaletteStatus{
		models.StatusUnanswered, models.StatusUnanswered, models.StatusUnanswered,
	}, statuses(s.Palette()))

	require.NoError(t, s.SetAnswer("1", "A", models.SingleChoice))
	require.NoError(t, s.SetAnswer("3", models.BlankInput{Index: 0, Text: "statically"}, models.FillInTheBlank))
	assert.Equal(t, []models.PaletteStatus{
		models.StatusAnswered, models.StatusUnanswered, models.StatusUnanswered,
	}, statuses(s.Palette()))

	f.submitter.On("Submit", mock.Anything, mock.Anything).Return(&models.SubmissionResult{
		Total: 3,
		Details: []models.SubmissionDetail{
			{QuestionID: "1", IsCorrect: true},
			{QuestionID: "2", IsCorrect: false},
		},
	}, nil)
	_, err := s.AutoSubmit(context.Background())
	require.NoError(t, err)

	palette := s.Palette()
	assert.Equal(t, []models.PaletteStatus{
		models.StatusCorrect, models.StatusIncorrect, models.StatusIncorrect,
	}, statuses(palette))
	assert.True(t, palette[0].Current)
	assert.Equal(t, models.ID("3"), palette[2].QuestionID)
}

func TestSession_JumpTo(t *testing.T) {
	f := newFixture(sampleQuestions(), 0)
	s := f.session

	target, err := s.JumpTo(2)
	require.NoError(t, err)
	assert.Equal(t, models.ScrollTarget{Index: 2, Page: 2, Offset: 80}, target)
	assert.Equal(t, 2, s.Cursor())
	assert.True(t, s.Palette()[2].Current)

	_, err = s.JumpTo(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.JumpTo(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 2, s.Cursor())
}

func TestSession_Page(t *testing.T) {
	f := newFixture(sampleQuestions(), 0)
	s := f.session

	assert.Equal(t, 2, s.PageCount())

	first, err := s.Page(1)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, models.ID("1"), first[0].ID)

	second, err := s.Page(2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, models.ID("3"), second[0].ID)

	_, err = s.Page(0)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = s.Page(3)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	empty := newFixture(nil, 0).session
	assert.Equal(t, 1, empty.PageCount())
	page, err := empty.Page(1)
	require.NoError(t, err)
	assert.Empty(t, page)
}
