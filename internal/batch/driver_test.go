package batch

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/layout-localizer/backend/internal/localize"
	"github.com/layout-localizer/backend/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Name,pos_x,pos_y,scale_x,scale_y\n"

func newTestDriver(out *bytes.Buffer) *Driver {
	return NewDriver(parser.NewRegistry(""), localize.NewConverter(nil), Options{
		Extensions: []string{".csv"},
		Out:        out,
	})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunDirConvertsEachFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "menu.csv", header+"1_中_1,1.23456,2,1,1\n1_英_1,3,4,1,1\n")
	writeFile(t, dir, "shop.csv", header+"9_中_1,0,0,1,1\n")
	writeFile(t, dir, "readme.txt", "not a sheet")
	writeFile(t, dir, "~$menu.csv", "lock")

	var out bytes.Buffer
	summary, err := newTestDriver(&out).RunDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, filepath.Join(dir, "menuLocalization.txt"), summary.Results[0].Output)
	assert.Equal(t, filepath.Join(dir, "shopLocalization.txt"), summary.Results[1].Output)

	data, err := os.ReadFile(filepath.Join(dir, "menuLocalization.txt"))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	pages := doc["Pages"].([]interface{})
	require.Len(t, pages, 1)
	page := pages[0].(map[string]interface{})
	assert.Equal(t, "1_底", page["BackgroundName"])
	cn := page["Context_CN"].([]interface{})
	assert.Equal(t, 1.235, cn[0].(map[string]interface{})["pos_x"])

	assert.Contains(t, out.String(), "menuLocalization.txt")
	assert.Contains(t, out.String(), "shopLocalization.txt")
}

func TestRunDirContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_bad.csv", "Name,pos_x\n1_中_1,1\n")
	writeFile(t, dir, "b_good.csv", header+"1_中_1,1,1,1,1\n")

	var out bytes.Buffer
	summary, err := newTestDriver(&out).RunDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 2)
	assert.Error(t, summary.Results[0].Err)
	assert.NoError(t, summary.Results[1].Err)
	assert.FileExists(t, filepath.Join(dir, "b_goodLocalization.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "a_badLocalization.txt"))
	assert.Contains(t, out.String(), "ERROR a_bad.csv")
}

func TestRunDirReportsRowErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rows.csv", header+"1_中_1,x,1,1,1\n1_中_2,1,1,1,1\nabc_xyz,1,1,1,1\n")

	var out bytes.Buffer
	summary, err := newTestDriver(&out).RunDir(dir)
	require.NoError(t, err)

	res := summary.Results[0]
	require.NoError(t, res.Err)
	require.Len(t, res.RowErrors, 1)
	assert.Equal(t, 2, res.RowErrors[0].Line)
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Equal(t, 1, res.Stats.Elements)
	assert.Contains(t, out.String(), "line 2")
}

func TestRunDirDropsNonFiniteRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "s.csv", header+"1_中_1,1,2,1,1\n1_中_2,NaN,2,1,1\n1_英_1,3,4,1,1\n")

	var out bytes.Buffer
	summary, err := newTestDriver(&out).RunDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Failed)
	res := summary.Results[0]
	require.NoError(t, res.Err)
	require.Len(t, res.RowErrors, 1)
	assert.Equal(t, 3, res.RowErrors[0].Line)

	data, err := os.ReadFile(filepath.Join(dir, "sLocalization.txt"))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	page := doc["Pages"].([]interface{})[0].(map[string]interface{})
	cn := page["Context_CN"].([]interface{})
	require.Len(t, cn, 1)
	assert.Equal(t, "1_中_1", cn[0].(map[string]interface{})["Name"])
	en := page["Context_EN"].([]interface{})
	require.Len(t, en, 1)
	assert.Equal(t, "1_英_1", en[0].(map[string]interface{})["Name"])
}

func TestRunDirEmpty(t *testing.T) {
	var out bytes.Buffer
	summary, err := newTestDriver(&out).RunDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, summary.Results)
	assert.Contains(t, out.String(), "No .csv files found")
}

func TestRunDirMissingDirectory(t *testing.T) {
	var out bytes.Buffer
	_, err := newTestDriver(&out).RunDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestConvertFileOutputDir(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()
	path := writeFile(t, in, "menu.csv", header+"1_中_1,1,1,1,1\n")

	var out bytes.Buffer
	d := NewDriver(parser.NewRegistry(""), localize.NewConverter(nil), Options{OutputDir: outDir, OutputExt: ".json", Out: &out})

	res := d.ConvertFile(path)
	require.NoError(t, res.Err)
	assert.Equal(t, filepath.Join(outDir, "menuLocalization.json"), res.Output)
	assert.FileExists(t, res.Output)
}
