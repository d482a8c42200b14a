package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublications_PreservesTableOrder(t *testing.T) {
	data := []byte(`{"z":{"author_uid":"a","text_uid":"dn"},"b":{"author_uid":"a","text_uid":"dn"},"m":{"author_uid":"c","text_uid":"mn"}}`)

	pubs, err := parsePublications(data)

	require.NoError(t, err)
	require.Len(t, pubs, 3)
	assert.Equal(t, []string{"z", "b", "m"}, []string{pubs[0].ID, pubs[1].ID, pubs[2].ID})

	p, ok := matchPublication(pubs, "a", "dn33")
	require.True(t, ok)
	assert.Equal(t, "z", p.ID)
}

func TestParsePublications_ArrayForm(t *testing.T) {
	pubs, err := parsePublications([]byte(`[{"author_uid":"a","text_uid":"an"}]`))

	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, "#0", pubs[0].ID)
}

func TestParsePublications_Invalid(t *testing.T) {
	for _, in := range []string{`"str"`, `{"a":`, `{"a":{"author_uid":7}}`, ``} {
		_, err := parsePublications([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestMatchPublication(t *testing.T) {
	pubs := []Publication{
		{ID: "p1", AuthorUID: "sujato", TextUID: "dn"},
		{ID: "p2", AuthorUID: "sujato", TextUID: "an"},
		{ID: "p3", AuthorUID: "brahmali", TextUID: "pli-tv-kd"},
	}
	tests := []struct {
		author, id, want string
	}{
		{"sujato", "dn1", "p1"},
		{"sujato", "an1.1-10", "p2"},
		{"brahmali", "pli-tv-kd1", "p3"},
		{"sujato", "mn1", ""},
		{"", "dn1", ""},
	}
	for _, tt := range tests {
		p, ok := matchPublication(pubs, tt.author, tt.id)
		assert.Equal(t, tt.want != "", ok, tt.id)
		assert.Equal(t, tt.want, p.ID, tt.id)
	}
}

func TestParseAuthors(t *testing.T) {
	authors, err := parseAuthors([]byte(`{"sujato":{"name":"Bhikkhu Sujato"},"anon":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "Bhikkhu Sujato", authors["sujato"].Name)
	assert.Equal(t, "anon", authors["anon"].UID)
	assert.Equal(t, "anon", displayName(authors, "anon"))
	assert.Equal(t, "ghost", displayName(authors, "ghost"))

	_, err = parseAuthors([]byte(`{`))
	assert.Error(t, err)
}
