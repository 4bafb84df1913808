package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var body struct {
		Expiry *Date `json:"expiry_date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expiry_date":"2026-03-15"}`), &body))
	require.NotNil(t, body.Expiry)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), body.Expiry.Time)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiry_date":"2026-03-15"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"expiry_date":"2026-03-15T18:30:00+02:00"}`), &body))
	assert.Equal(t, "2026-03-15", body.Expiry.String())

	require.NoError(t, json.Unmarshal([]byte(`{"expiry_date":null}`), &body))
	assert.Nil(t, body.Expiry)
	assert.Nil(t, body.Expiry.TimePtr())

	assert.Error(t, json.Unmarshal([]byte(`{"expiry_date":"15/03/2026"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"expiry_date":20260315}`), &body))
}

func TestDateFromTime(t *testing.T) {
	assert.Nil(t, DateFromTime(nil))

	ts := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	d := DateFromTime(&ts)
	require.NotNil(t, d)
	assert.Equal(t, "2026-03-15", d.String())
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *d.TimePtr())
}
