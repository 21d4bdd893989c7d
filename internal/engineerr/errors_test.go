package engineerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "skippable_file", KindSkippableFile.String())
	assert.Equal(t, "fatal", KindFatal.String())
}

func TestMaxRetries(t *testing.T) {
	assert.Equal(t, 2, KindTransient.MaxRetries())
	assert.Equal(t, 0, KindSkippableRepo.MaxRetries())
	assert.Equal(t, 0, KindFatal.MaxRetries())
}

func TestErrorWrapsAndUnwraps(t *testing.T) {
	underlying := errors.New("clone timed out")
	err := Transient("github.com/example/repo", underlying)

	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, "transient[github.com/example/repo]: clone timed out", err.Error())
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := SkippableRepo("repo-a", errors.New("boom"))
	b := SkippableRepo("repo-b", errors.New("different boom"))
	fatal := Fatal("catalog.csv", errors.New("missing"))

	assert.True(t, errors.Is(a, &Error{Kind: KindSkippableRepo}))
	assert.True(t, errors.Is(b, &Error{Kind: KindSkippableRepo}))
	assert.False(t, errors.Is(fatal, &Error{Kind: KindSkippableRepo}))
}
