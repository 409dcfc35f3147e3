package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/fence"
	"github.com/rejot-dev/thalo/internal/semantic"
)

func tokenAt(tokens []Token, line, startChar int) *Token {
	for i := range tokens {
		if tokens[i].Line == line && tokens[i].StartChar == startChar {
			return &tokens[i]
		}
	}
	return nil
}

func TestExtractSemanticTokens(t *testing.T) {
	src := "2026-01-05T18:00Z create lore \"E\" ^rome #travel\n" +
		"  subject: \"x\"\n" +
		"  when: 2026-01-04\n"
	m := semantic.Build("a.thalo", []byte(src), fence.FileTypeThalo)
	tokens := ExtractSemanticTokens(m)
	require.NotEmpty(t, tokens)

	// sorted by (line, startChar)
	for i := 1; i < len(tokens); i++ {
		prev, cur := tokens[i-1], tokens[i]
		require.True(t, prev.Line < cur.Line || (prev.Line == cur.Line && prev.StartChar <= cur.StartChar))
	}

	ts := tokenAt(tokens, 0, 0)
	require.NotNil(t, ts)
	require.Equal(t, TokenDatetime, ts.TokenType)
	require.Equal(t, len("2026-01-05T18:00Z"), ts.Length)

	directive := tokenAt(tokens, 0, 18)
	require.NotNil(t, directive)
	require.Equal(t, TokenKeyword, directive.TokenType)

	entity := tokenAt(tokens, 0, 25)
	require.NotNil(t, entity)
	require.Equal(t, TokenClass, entity.TokenType)

	link := tokenAt(tokens, 0, 34)
	require.NotNil(t, link)
	require.Equal(t, TokenReference, link.TokenType)

	tag := tokenAt(tokens, 0, 40)
	require.NotNil(t, tag)
	require.Equal(t, TokenDecorator, tag.TokenType)

	key := tokenAt(tokens, 1, 2)
	require.NotNil(t, key)
	require.Equal(t, TokenProperty, key.TokenType)

	datetime := tokenAt(tokens, 2, 8)
	require.NotNil(t, datetime)
	require.Equal(t, TokenDatetime, datetime.TokenType)
}

func TestExtractSemanticTokens_SectionHeading(t *testing.T) {
	src := "2026-01-05T18:00Z create lore \"E\"\n  k: \"v\"\n\n  # Summary\n  body.\n"
	m := semantic.Build("a.thalo", []byte(src), fence.FileTypeThalo)
	tokens := ExtractSemanticTokens(m)

	heading := tokenAt(tokens, 3, 2)
	require.NotNil(t, heading)
	require.Equal(t, TokenHeading, heading.TokenType)
}
