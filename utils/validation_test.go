package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	Name        string  `json:"name" validate:"required"`
	Age         int     `json:"age" validate:"required,gte=0,lte=150"`
	ReleaseDate string  `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
	IDs         []int64 `json:"ids" validate:"omitempty,unique,dive,gt=0"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := TestStruct{
			Name:        "Jane Doe",
			Age:         30,
			ReleaseDate: "2024-05-01",
			IDs:         []int64{1, 2},
		}

		err := ValidateStruct(&s)
		assert.NoError(t, err)
	})

	t.Run("missing required field uses json name", func(t *testing.T) {
		s := TestStruct{Age: 30}

		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "name is required", fields["name"])
	})

	t.Run("age out of range", func(t *testing.T) {
		s := TestStruct{Name: "Jane Doe", Age: 200}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "age")
	})

	t.Run("bad date", func(t *testing.T) {
		s := TestStruct{Name: "Jane Doe", Age: 30, ReleaseDate: "05/01/2024"}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "release_date must be a date in YYYY-MM-DD format", fields["release_date"])
	})

	t.Run("duplicate ids", func(t *testing.T) {
		s := TestStruct{Name: "Jane Doe", Age: 30, IDs: []int64{1, 1}}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "ids")
	})
}

func TestGetValidationFields_NotValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.False(t, IsValidationError(assert.AnError))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1", want: 1},
		{in: "42", want: 42},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
