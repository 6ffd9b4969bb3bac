package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatches(t *testing.T) {
	chunk := Chunk{Key: PaperKey{Subject: "cs", Topic: "ml", Title: "P", Year: 2021}}
	year2021, year2020 := 2021, 2020

	assert.True(t, QueryFilter{}.Matches(chunk), "empty filter matches everything")
	assert.True(t, QueryFilter{Subject: "cs"}.Matches(chunk))
	assert.True(t, QueryFilter{Subject: "cs", Topic: "ml", Year: &year2021}.Matches(chunk))

	assert.False(t, QueryFilter{Subject: "physics"}.Matches(chunk))
	assert.False(t, QueryFilter{Topic: "nlp"}.Matches(chunk))
	assert.False(t, QueryFilter{Year: &year2020}.Matches(chunk))
}

func TestFilterLimit(t *testing.T) {
	assert.Equal(t, DefaultK, QueryFilter{}.Limit())
	assert.Equal(t, DefaultK, QueryFilter{K: -1}.Limit())
	assert.Equal(t, 3, QueryFilter{K: 3}.Limit())
}

func TestChunkID(t *testing.T) {
	c := Chunk{DocumentHash: "deadbeef", Seq: 42}
	assert.Equal(t, "deadbeef:42", c.ID())
}

func TestCandidateKey(t *testing.T) {
	c := CandidateRecord{Subject: "cs", Topic: "ml", Title: "T", Year: 2019}
	assert.Equal(t, PaperKey{Subject: "cs", Topic: "ml", Title: "T", Year: 2019}, c.Key())
}
