package lang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocale(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "text.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndTranslate(t *testing.T) {
	path := writeLocale(t, `
en:
  Welcome: "Hello"
  Days: "Mon,Tue,Wed,Thu,Fri,Sat,Sun"
ru:
  Welcome: "Привет"
  Days: "Пн,Вт,Ср,Чт,Пт,Сб,Вс"
`)
	store, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Hello", store.Translate("en", "Welcome"))
	assert.Equal(t, "Привет", store.Translate("ru", "Welcome"))

	// Unknown language falls back to English, unknown key to itself.
	assert.Equal(t, "Hello", store.Translate("de", "Welcome"))
	assert.Equal(t, "NoSuchKey", store.Translate("en", "NoSuchKey"))

	assert.True(t, store.Supported("ru"))
	assert.False(t, store.Supported("de"))
	assert.ElementsMatch(t, []string{"en", "ru"}, store.Languages())
}

func TestLoadRequiresEnglish(t *testing.T) {
	path := writeLocale(t, `
ru:
  Welcome: "Привет"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestDaysContract(t *testing.T) {
	store, err := Load(writeLocale(t, `
en:
  Days: "Mon,Tue,Wed,Thu,Fri,Sat,Sun"
ru:
  Days: "Пн,Вт,Ср"
`))
	require.NoError(t, err)

	days, err := store.Days("en")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, days)

	// Malformed locale data is an error, never a silent default.
	_, err = store.Days("ru")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
