package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	v := NewUploadValidator(nil, 1024, []string{".csv"})

	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  string
	}{
		{
			name:     "valid csv",
			filename: "vgsales.csv",
			size:     512,
		},
		{
			name:     "uppercase extension",
			filename: "VGSALES.CSV",
			size:     512,
		},
		{
			name:     "wrong extension",
			filename: "vgsales.xlsx",
			size:     512,
			wantErr:  "unsupported extension",
		},
		{
			name:     "no extension",
			filename: "vgsales",
			size:     512,
			wantErr:  "unsupported extension",
		},
		{
			name:     "too large",
			filename: "vgsales.csv",
			size:     2048,
			wantErr:  "exceeding",
		},
		{
			name:     "zero size passes through to parser",
			filename: "vgsales.csv",
			size:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.filename, tt.size)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMaxBytes(t *testing.T) {
	v := NewUploadValidator(nil, 4096, []string{".csv"})
	assert.Equal(t, int64(4096), v.MaxBytes())
}
