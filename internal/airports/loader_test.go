package airports

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const sample = `iata_code|name_eng|city_eng|country_rus|latitude|longitude
jfk|John F Kennedy|New York|USA|40.6398|-73.7789
LAX|Los Angeles Intl|Los Angeles|USA|33.9425|-118.4081
SVO|Sheremetyevo|Moscow|Russia|55.9726|37.4146
DXB|Dubai Intl|Dubai|UAE|25.2528|55.3644
XXX|No Coords|Nowhere|Nowhere||
YYY|Bad Coords|Nowhere|Nowhere|north|east
broken|row
`

func TestLoad_ParsesRowsAndCountsProblems(t *testing.T) {
	ds, st, err := Load(strings.NewReader(sample), Options{Encoding: "utf-8"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 6 || st.Rows != 6 {
		t.Fatalf("rows=%d stats=%d want 6", ds.Len(), st.Rows)
	}
	if st.Malformed != 1 {
		t.Fatalf("malformed=%d want 1", st.Malformed)
	}
	if st.NoCoordinates != 2 {
		t.Fatalf("no_coordinates=%d want 2", st.NoCoordinates)
	}

	jfk, ok := ds.Lookup("JFK")
	if !ok {
		t.Fatalf("expected JFK (lowercase in file) to be found")
	}
	if jfk.City != "New York" || jfk.Country != "USA" || jfk.Lat != 40.6398 || jfk.Lon != -73.7789 {
		t.Fatalf("unexpected JFK record: %+v", jfk)
	}

	xxx, ok := ds.Lookup("xxx")
	if !ok {
		t.Fatalf("records without coordinates must stay in the dataset")
	}
	if !math.IsNaN(xxx.Lat) || !math.IsNaN(xxx.Lon) {
		t.Fatalf("expected NaN coordinates, got %v,%v", xxx.Lat, xxx.Lon)
	}
}

func TestLoad_ColumnsByHeaderName(t *testing.T) {
	in := "latitude;longitude;iata_code;country_rus;city_eng;name_eng;extra\n" +
		"55.9726;37.4146;SVO;Russia;Moscow;Sheremetyevo;x\n"
	ds, _, err := Load(strings.NewReader(in), Options{Separator: ';', Encoding: "utf8"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	svo, ok := ds.Lookup("svo")
	if !ok || svo.Lat != 55.9726 || svo.Name != "Sheremetyevo" {
		t.Fatalf("unexpected: ok=%v %+v", ok, svo)
	}
}

func TestLoad_MissingColumn(t *testing.T) {
	in := "iata_code|name_eng|city_eng|latitude|longitude\nSVO|S|M|1|2\n"
	_, _, err := Load(strings.NewReader(in), Options{Encoding: "utf-8"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err=%v want ErrMissingColumn", err)
	}
}

func TestLoad_UnknownEncoding(t *testing.T) {
	if _, _, err := Load(strings.NewReader(sample), Options{Encoding: "ebcdic"}); err == nil {
		t.Fatalf("expected error for unsupported encoding")
	}
}

func TestLoadFile_Latin1(t *testing.T) {
	text := "iata_code|name_eng|city_eng|country_rus|latitude|longitude\n" +
		"ZRH|Zürich|Zürich|Suisse|47.4647|8.5492\n"
	enc, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "airports.csv")
	if err := os.WriteFile(path, []byte(enc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ds, _, err := LoadFile(path, Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	zrh, ok := ds.Lookup("ZRH")
	if !ok || zrh.City != "Zürich" {
		t.Fatalf("latin1 decode failed: %+v", zrh)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDataset_FirstMatchWins(t *testing.T) {
	in := "iata_code|name_eng|city_eng|country_rus|latitude|longitude\n" +
		"DUP|First|A|X|1|1\n" +
		"DUP|Second|B|Y|2|2\n"
	ds, _, err := Load(strings.NewReader(in), Options{Encoding: "utf-8"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a, ok := ds.Lookup(" dup ")
	if !ok || a.Name != "First" {
		t.Fatalf("want first duplicate, got %+v", a)
	}
	if got := ds.Codes(); !reflect.DeepEqual(got, []string{"DUP"}) {
		t.Fatalf("codes=%v", got)
	}
}

func TestDataset_LookupEmptyCode(t *testing.T) {
	ds, _, err := Load(strings.NewReader(sample), Options{Encoding: "utf-8"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := ds.Lookup("   "); ok {
		t.Fatalf("empty code must not match")
	}
}

func TestDataset_FingerprintTracksContent(t *testing.T) {
	a, _, _ := Load(strings.NewReader(sample), Options{Encoding: "utf-8"})
	b, _, _ := Load(strings.NewReader(sample), Options{Encoding: "utf-8"})
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("same content should fingerprint identically")
	}
	changed := strings.Replace(sample, "25.2528", "25.2529", 1)
	c, _, _ := Load(strings.NewReader(changed), Options{Encoding: "utf-8"})
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatalf("different content should change the fingerprint")
	}
}
