package locale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input    string
		expected Lang
		fails    bool
	}{
		{input: "tw", expected: TW},
		{input: " US ", expected: US},
		{input: "jp", fails: true},
		{input: "", fails: true},
	}

	for _, test := range testCases {
		lang, err := Parse(test.input)
		if test.fails {
			require.Error(t, err, test.input)
			continue
		}
		require.NoError(t, err, test.input)
		require.Equal(t, test.expected, lang)
	}
}

func TestLocator(t *testing.T) {
	locator := NewLocator("")
	asc, err := locator.Ascendancies(TW)
	require.NoError(t, err)
	require.Equal(t, "https://poedb.tw/tw/Ascendancy_class", asc)

	gems, err := locator.Gems(US)
	require.NoError(t, err)
	require.Equal(t, "https://poedb.tw/us/Skill_Gems", gems)

	mirror := NewLocator("http://127.0.0.1:8080/")
	gems, err = mirror.Gems(TW)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080/tw/Skill_Gems", gems)
}

func TestMessagesComplete(t *testing.T) {
	for _, lang := range Supported() {
		m := lang.Messages()
		require.NotEmpty(t, m.NoData, lang)
		require.NotEmpty(t, m.NoMatch, lang)
		require.Contains(t, m.Rolled, "%d", lang)
		require.NotEmpty(t, m.ColGem, lang)
	}
	require.Equal(t, Default.Messages(), Lang("jp").Messages())
}
