package kugou

import (
	"context"
	"net/http"
	"net/http/httptest"
	"songstory-api-go/services/providers"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, searchBody, playBody string) (*KugouProvider, chan string) {
	t.Helper()
	keywords := make(chan string, 8)
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		keywords <- r.URL.Query().Get("keyword")
		w.Write([]byte(searchBody))
	})
	mux.HandleFunc("/play", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("r") != "play/getdata" {
			t.Errorf("Expected r=play/getdata, got %q", q.Get("r"))
		}
		if q.Get("hash") != "B9C4E5A1D2" {
			t.Errorf("Expected hash B9C4E5A1D2, got %q", q.Get("hash"))
		}
		if q.Get("album_id") != "960399" {
			t.Errorf("Expected album_id 960399, got %q", q.Get("album_id"))
		}
		w.Write([]byte(playBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fetcher := providers.NewFetcher(ProviderName, 2*time.Second, nil)
	return NewProvider(fetcher, Endpoints{Search: server.URL + "/search", PlayData: server.URL + "/play"}), keywords
}

// AlbumID arrives as a number here; other responses send it as a string
const validSearch = `{"status":1,"data":{"lists":[{"SongName":"晴天","SingerName":"周杰伦","FileHash":"B9C4E5A1D2","AlbumID":960399}]}}`

func TestProvider_Identity(t *testing.T) {
	var p providers.Provider = NewProvider(nil, DefaultEndpoints)

	if p.Name() != "kugou" {
		t.Errorf("Name() = %q, expected kugou", p.Name())
	}
	if p.Source() != providers.SourceKugou {
		t.Errorf("Source() = %v, expected kugou", p.Source())
	}
}

func TestSearch_Success(t *testing.T) {
	play := `{"status":1,"data":{"hash":"B9C4E5A1D2","song_name":"晴天","author_name":"周杰伦","lyrics":"[00:27.12]故事的小黄花\r\n[00:30.123]从出生那年就飘着\r\n"}}`
	p, keywords := newTestProvider(t, validSearch, play)

	result := p.Search(context.Background(), providers.Query{Song: "晴天", Artist: "周杰伦"})
	if result == nil {
		t.Fatal("Expected a result, got nil")
	}

	if k := <-keywords; k != "晴天 周杰伦" {
		t.Errorf("Expected keyword '晴天 周杰伦', got %q", k)
	}
	if result.Title != "晴天" || result.Artist != "周杰伦" {
		t.Errorf("Unexpected title/artist: %q / %q", result.Title, result.Artist)
	}
	if result.Source != providers.SourceKugou {
		t.Errorf("Expected Kugou source, got %v", result.Source)
	}
	if result.Lyrics != "故事的小黄花\r\n从出生那年就飘着" {
		t.Errorf("Unexpected cleaned lyrics: %q", result.Lyrics)
	}
	expected := "《晴天》 - 周杰伦\n来源: 酷狗音乐\n\n" + result.Lyrics
	if result.Formatted != expected {
		t.Errorf("Formatted = %q, expected %q", result.Formatted, expected)
	}
}

func TestSearch_AlbumIDAsString(t *testing.T) {
	search := `{"data":{"lists":[{"FileHash":"B9C4E5A1D2","AlbumID":"960399"}]}}`
	play := `{"data":{"song_name":"晴天","author_name":"周杰伦","lyrics":"[00:01.00]hello"}}`
	p, _ := newTestProvider(t, search, play)

	result := p.Search(context.Background(), providers.Query{Song: "晴天"})
	if result == nil || result.Lyrics != "hello" {
		t.Errorf("Expected lyrics 'hello', got %+v", result)
	}
}

func TestSearch_Absent(t *testing.T) {
	tests := []struct {
		name   string
		search string
		play   string
	}{
		{"missing data", `{"status":1}`, `{}`},
		{"missing lists", `{"data":{}}`, `{}`},
		{"empty lists", `{"data":{"lists":[]}}`, `{}`},
		{"empty hash", `{"data":{"lists":[{"FileHash":"","AlbumID":"960399"}]}}`, `{}`},
		{"malformed search json", `<html>`, `{}`},
		{"missing play data", validSearch, `{"status":0}`},
		{"missing lyrics", validSearch, `{"data":{"song_name":"晴天"}}`},
		{"tags only", validSearch, `{"data":{"lyrics":"[00:01.00]\n[00:02.00]"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, tt.search, tt.play)
			if result := p.Search(context.Background(), providers.Query{Song: "晴天"}); result != nil {
				t.Errorf("Expected nil, got %+v", result)
			}
		})
	}
}

func TestSearchSongs(t *testing.T) {
	p, _ := newTestProvider(t, validSearch, `{}`)

	songs, err := p.SearchSongs(context.Background(), providers.Query{Song: "晴天"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(songs) != 1 || songs[0].AlbumID != "960399" {
		t.Errorf("Unexpected songs: %+v", songs)
	}
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewProvider(providers.NewFetcher(ProviderName, time.Second, nil), Endpoints{Search: server.URL, PlayData: server.URL})
	if result := p.Search(context.Background(), providers.Query{Song: "晴天"}); result != nil {
		t.Errorf("Expected nil on server error, got %+v", result)
	}
}
