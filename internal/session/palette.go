package session

import (
	"fmt"

	"github.com/SAP-F-2025/test-session/internal/models"
)

// Palette derives one indicator per question. Before a result exists the
// indicator shows whether the question is answered; afterwards it shows the
// backend verdict, and a question without a detail is shown as incorrect.
func (s *Session) Palette() []models.PaletteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]models.PaletteEntry, len(s.questions))
	for i, q := range s.questions {
		entries[i] = models.PaletteEntry{
			Index:      i,
			QuestionID: q.ID,
			Status:     s.statusLocked(q),
			Current:    i == s.cursor,
		}
	}
	return entries
}

func (s *Session) statusLocked(q models.Question) models.PaletteStatus {
	if s.mode == models.ModeDoing || s.result == nil {
		if IsAnswered(q, s.answers.Get(q.ID), s.opts.BlankMarker) {
			return models.StatusAnswered
		}
		return models.StatusUnanswered
	}
	if d, ok := s.result.Detail(q.ID); ok && d.IsCorrect {
		return models.StatusCorrect
	}
	return models.StatusIncorrect
}

// JumpTo moves the cursor to a question and tells the view where to
// scroll, below the fixed header.
func (s *Session) JumpTo(index int) (models.ScrollTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ScrollTarget{}, ErrSessionClosed
	}
	if index < 0 || index >= len(s.questions) {
		return models.ScrollTarget{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(s.questions))
	}
	s.cursor = index
	return models.ScrollTarget{
		Index:  index,
		Page:   index/s.opts.PageSize + 1,
		Offset: s.opts.HeaderOffset,
	}, nil
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// PageCount is the number of question pages; an empty test has one empty page.
func (s *Session) PageCount() int {
	n := (len(s.questions) + s.opts.PageSize - 1) / s.opts.PageSize
	if n == 0 {
		return 1
	}
	return n
}

// Page returns the questions of a 1-based page.
func (s *Session) Page(page int) ([]models.Question, error) {
	if page < 1 || page > s.PageCount() {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page, s.PageCount())
	}
	start := (page - 1) * s.opts.PageSize
	end := start + s.opts.PageSize
	if end > len(s.questions) {
		end = len(s.questions)
	}
	return append([]models.Question(nil), s.questions[start:end]...), nil
}
