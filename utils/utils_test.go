package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestGenerateSlug(t *testing.T) {
	require.Equal(t, "mobilier-de-gradina", GenerateSlug("Mobilier de grădină"))
	require.Equal(t, "chairs-tables", GenerateSlug("  Chairs & Tables!  "))
	require.Equal(t, "", GenerateSlug("---"))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, CheckPassword(hash, "s3cret-pass"))
	require.Error(t, CheckPassword(hash, "wrong"))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SAHO_TEST_MINUTES", "0")
	require.Equal(t, 30*time.Minute, MinutesEnv("SAHO_TEST_MINUTES", 30))

	t.Setenv("SAHO_TEST_MINUTES", "12")
	require.Equal(t, 12*time.Minute, MinutesEnv("SAHO_TEST_MINUTES", 30))

	t.Setenv("SAHO_TEST_DELAY", "350ms")
	require.Equal(t, 350*time.Millisecond, DurationEnv("SAHO_TEST_DELAY", time.Second))

	t.Setenv("SAHO_TEST_DELAY", "soon")
	require.Equal(t, time.Second, DurationEnv("SAHO_TEST_DELAY", time.Second))

	require.Equal(t, []string{"http://a", "http://b"}, SplitList(" http://a, ,http://b "))
	require.Equal(t, 7, ParseIntDefault("x", 7))
}

func TestIsDuplicateKey(t *testing.T) {
	require.False(t, IsDuplicateKey(nil))
	require.False(t, IsDuplicateKey(errors.New("connection reset")))
	require.True(t, IsDuplicateKey(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}))
	require.True(t, IsDuplicateKey(errors.New("E11000 duplicate key error collection: saho.categories")))
}
