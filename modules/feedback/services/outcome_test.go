package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		result *BulkMergeResult
		want   Outcome
		status int
	}{
		{
			name:   "all rows succeed",
			result: &BulkMergeResult{TotalRequested: 3, SuccessfullyCreated: 2, UpdatedCount: 1},
			want:   OutcomeSuccess,
			status: http.StatusCreated,
		},
		{
			name:   "mixed rows",
			result: &BulkMergeResult{TotalRequested: 3, SuccessfullyCreated: 1, UpdatedCount: 1, Failed: 1},
			want:   OutcomePartial,
			status: http.StatusMultiStatus,
		},
		{
			name:   "all rows fail",
			result: &BulkMergeResult{TotalRequested: 2, Failed: 2},
			want:   OutcomeFailure,
			status: http.StatusBadRequest,
		},
		{
			name:   "empty batch",
			result: &BulkMergeResult{},
			want:   OutcomeFailure,
			status: http.StatusBadRequest,
		},
		{
			name:   "nil result",
			result: nil,
			want:   OutcomeFailure,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.result)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.status, got.HTTPStatus())
		})
	}
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "success", OutcomeSuccess.String())
	require.Equal(t, "partial", OutcomePartial.String())
	require.Equal(t, "failure", OutcomeFailure.String())
}
