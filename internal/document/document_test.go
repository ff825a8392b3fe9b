package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = `
<DOC>
<DOCNO> LA010189-0001 </DOCNO>
<HEADLINE>
Rain in Spain
</HEADLINE>
<TEXT>
The rain stays mainly
in the plain.
</TEXT>
</DOC>
<DOC>
<DOCNO>LA010189-0002</DOCNO>
<TEXT>   </TEXT>
</DOC>
<DOC>
<TEXT>no docno here</TEXT>
</DOC>
<DOC>
<DOCNO>LA010189-0003</DOCNO>
<TEXT>second</TEXT>
</DOC>`

func TestParse(t *testing.T) {
	docs := Parse(corpus)
	require.Len(t, docs, 2)
	assert.Equal(t, "LA010189-0001", docs[0].ID)
	assert.Equal(t, "Rain in Spain", docs[0].Headline)
	assert.Equal(t, "The rain stays mainly\nin the plain.", docs[0].Text)
	assert.Equal(t, "LA010189-0003", docs[1].ID)
	assert.Empty(t, docs[1].Headline)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a, added := r.Register("A")
	assert.True(t, added)
	b, _ := r.Register("B")
	again, added := r.Register("A")
	assert.False(t, added)
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, a, again)
	assert.Equal(t, 2, r.Len())

	ext, ok := r.Resolve(1)
	assert.True(t, ok)
	assert.Equal(t, "B", ext)
	_, ok = r.Resolve(2)
	assert.False(t, ok)

	copyOf := RegistryFrom(r.IDs())
	id, added := copyOf.Register("B")
	assert.False(t, added)
	assert.Equal(t, 1, id)
}
