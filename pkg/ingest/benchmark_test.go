package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/japaniel/pera/pkg/article"
	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/dictionary"
	_ "github.com/mattn/go-sqlite3"
)

func setupBenchmarkDB(b *testing.B) *sql.DB {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		b.Fatalf("failed to open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	_, _ = conn.Exec("PRAGMA synchronous = OFF")
	_, _ = conn.Exec("PRAGMA journal_mode = MEMORY")

	if err := db.InitDB(conn); err != nil {
		b.Fatalf("failed to init db: %v", err)
	}
	return conn
}

func generateBenchmarkSentences(n int) []article.Sentence {
	var sentences []article.Sentence
	for i := 0; i < n; i++ {
		num := fmt.Sprintf("%d", i)
		sentences = append(sentences, article.Sentence{
			Text: fmt.Sprintf("猫は魚を食べたテスト%d", i),
			Tokens: []article.Token{
				tok("猫", "猫", "ネコ", "名詞", "一般", "*", "*"),
				tok("は", "は", "ハ", "助詞", "係助詞", "*", "*"),
				tok("魚", "魚", "サカナ", "名詞", "一般", "*", "*"),
				tok("を", "を", "ヲ", "助詞", "格助詞", "一般", "*"),
				tok("食べ", "食べる", "タベ", "動詞", "自立", "*", "*"),
				tok("た", "た", "タ", "助動詞", "*", "*", "*"),
				tok("テスト", "テスト", "テスト", "名詞", "サ変接続", "*", "*"),
				tok(num, num, num, "名詞", "数", "*", "*"),
			},
		})
	}
	return sentences
}

func runIngestBenchmark(b *testing.B, workers int, sentences []article.Sentence) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		conn := setupBenchmarkDB(b)
		sourceID, err := db.CreateOrGetSource(conn, "test", fmt.Sprintf("bench_%d_%d", workers, i), "", "", "http://bench", "")
		if err != nil {
			conn.Close()
			b.Fatalf("CreateOrGetSource failed: %v", err)
		}

		ingester := NewIngester(conn, testDict)
		ingester.Workers = workers
		ingester.BatchSize = 100
		b.StartTimer()

		_, err = ingester.Ingest(context.Background(), sourceID, sentences)
		b.StopTimer()
		conn.Close()
		if err != nil {
			b.Fatalf("Ingest failed: %v", err)
		}
	}
}

func BenchmarkIngest(b *testing.B) {
	sentences := generateBenchmarkSentences(1000)
	b.ResetTimer()
	runIngestBenchmark(b, 4, sentences)
}

func BenchmarkIngestConcurrencyScaling(b *testing.B) {
	sentences := generateBenchmarkSentences(1000)
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("Workers_%d", workers), func(b *testing.B) {
			b.ResetTimer()
			runIngestBenchmark(b, workers, sentences)
		})
	}
}

func BenchmarkSeed(b *testing.B) {
	records := make([]dictionary.Record, 5000)
	for i := range records {
		records[i] = dictionary.Record{ID: fmt.Sprintf("%d", 1000000+i), Reading: "よみ", Level: "N3"}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		conn := setupBenchmarkDB(b)
		b.StartTimer()
		if _, err := NewSeeder(conn).Seed(context.Background(), records, ""); err != nil {
			b.Fatalf("Seed failed: %v", err)
		}
		b.StopTimer()
		conn.Close()
	}
}
