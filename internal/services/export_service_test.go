package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportService_ExportReview(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, stubAuth{initialized: true, user: student})
	export := NewExportService(f.service, discardLogger())

	snap, err := f.service.Start(ctx, "42")
	require.NoError(t, err)

	_, _, err = export.ExportReview(ctx, snap.ID)
	assert.True(t, IsConflict(err))

	_, err = f.service.SetAnswer(ctx, snap.ID, "1", &AnswerRequest{Type: models.SingleChoice, Value: str("A")})
	require.NoError(t, err)
	sess, err := f.service.Session(snap.ID)
	require.NoError(t, err)
	_, err = sess.AutoSubmit(ctx)
	require.NoError(t, err)

	data, name, err := export.ExportReview(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "review-"+snap.ID+".xlsx", name)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Review")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#", "Question", "Type", "Your Answer", "Result", "Correct Answer", "Solution"}, rows[0])
	assert.Equal(t, "A", rows[1][3])
	assert.Equal(t, "Correct", rows[1][4])
	assert.Equal(t, "Incorrect", rows[2][4])

	score, err := wb.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "5", score)

	_, _, err = export.ExportReview(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestFormatAnswer(t *testing.T) {
	assert.Equal(t, "", formatAnswer(nil))
	assert.Equal(t, "A", formatAnswer("A"))
	assert.Equal(t, "map, chan", formatAnswer([]string{"map", "chan"}))
	assert.Equal(t, "B", formatAnswer(json.RawMessage(`"B"`)))
	assert.Equal(t, "x, y", formatAnswer(json.RawMessage(`["x","y"]`)))
	assert.Equal(t, "true", formatAnswer(json.RawMessage(`true`)))
}
