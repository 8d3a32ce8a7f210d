package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActor_TableName(t *testing.T) {
	assert.Equal(t, "actors", Actor{}.TableName())
}

func TestMovie_TableName(t *testing.T) {
	assert.Equal(t, "movies", Movie{}.TableName())
}

func TestActor_JSONMarshaling(t *testing.T) {
	actor := Actor{
		ID:        3,
		Name:      "Jane Doe",
		Age:       34,
		Gender:    "female",
		Movies:    []int64{1, 2},
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(actor)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(3), decoded["id"])
	assert.Equal(t, "Jane Doe", decoded["name"])
	assert.Equal(t, []interface{}{float64(1), float64(2)}, decoded["movies"])
	assert.NotContains(t, decoded, "CreatedAt")
	assert.NotContains(t, decoded, "created_at")
}

func TestMovie_JSONMarshaling(t *testing.T) {
	movie := Movie{
		ID:          9,
		Title:       "The Audition",
		ReleaseDate: NewDate(time.Date(2024, time.March, 5, 18, 30, 0, 0, time.UTC)),
		Actors:      []int64{},
	}

	data, err := json.Marshal(movie)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"title":"The Audition","release_date":"2024-03-05","actors":[]}`, string(data))
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"1999-12-31"`), &d))
	assert.Equal(t, "1999-12-31", d.String())

	assert.Error(t, json.Unmarshal([]byte(`"31/12/1999"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`19991231`), &d))
}

func TestCreateActorRequest_ToActor(t *testing.T) {
	req := CreateActorRequest{Name: "Jane", Age: 30, Gender: "female", Movies: []int64{4}}
	actor := req.ToActor()

	assert.Zero(t, actor.ID)
	assert.Equal(t, "Jane", actor.Name)
	assert.Equal(t, 30, actor.Age)
	assert.Equal(t, "female", actor.Gender)
	assert.Equal(t, []int64{4}, actor.Movies)
}

func TestUpdateActorRequest_Apply(t *testing.T) {
	t.Run("partial update keeps absent fields", func(t *testing.T) {
		var req UpdateActorRequest
		require.NoError(t, json.Unmarshal([]byte(`{"age": 41}`), &req))

		actor := &Actor{ID: 1, Name: "Jane", Age: 40, Gender: "female", Movies: []int64{2}}
		replace := req.Apply(actor)

		assert.False(t, replace)
		assert.Equal(t, "Jane", actor.Name)
		assert.Equal(t, 41, actor.Age)
		assert.Equal(t, []int64{2}, actor.Movies)
	})

	t.Run("empty movies list clears casting", func(t *testing.T) {
		var req UpdateActorRequest
		require.NoError(t, json.Unmarshal([]byte(`{"movies": []}`), &req))

		actor := &Actor{ID: 1, Movies: []int64{2, 3}}
		replace := req.Apply(actor)

		assert.True(t, replace)
		assert.Empty(t, actor.Movies)
	})
}

func TestCreateMovieRequest_ToMovie(t *testing.T) {
	req := CreateMovieRequest{Title: "Heat", ReleaseDate: "1995-12-15"}
	movie, err := req.ToMovie()
	require.NoError(t, err)
	assert.Equal(t, "Heat", movie.Title)
	assert.Equal(t, "1995-12-15", movie.ReleaseDate.String())

	req.ReleaseDate = "December 15"
	_, err = req.ToMovie()
	assert.Error(t, err)
}

func TestUpdateMovieRequest_Apply(t *testing.T) {
	var req UpdateMovieRequest
	require.NoError(t, json.Unmarshal([]byte(`{"release_date": "2001-01-02", "actors": [5]}`), &req))

	movie := &Movie{ID: 2, Title: "Old Title"}
	replace, err := req.Apply(movie)

	require.NoError(t, err)
	assert.True(t, replace)
	assert.Equal(t, "Old Title", movie.Title)
	assert.Equal(t, "2001-01-02", movie.ReleaseDate.String())
	assert.Equal(t, []int64{5}, movie.Actors)
}
