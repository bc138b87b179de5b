// seed_program writes a sample program document into the configured
// filesystem store so the generate endpoint has something to chew on.
//
// Usage:
//
//	go run scripts/seed_program.go -config=lessoncast.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/lessoncast/lessoncast/pkg/lesson"
)

type storageConfig struct {
	Storage struct {
		Provider string         `mapstructure:"provider"`
		Settings map[string]any `mapstructure:"settings"`
	} `mapstructure:"storage"`
}

// programDoc mirrors the stored program shape read by
// lesson.BlobSource. Building it from the lesson types keeps the
// seeded JSON keys in lockstep with what the service decodes.
type programDoc struct {
	ID      string          `json:"id"`
	Lessons []lesson.Lesson `json:"lessons"`
}

func sampleProgram(programID string) programDoc {
	lessonID := uuid.NewString()
	return programDoc{
		ID: programID,
		Lessons: []lesson.Lesson{
			{
				ID:        lessonID,
				ProgramID: programID,
				DayNumber: 1,
				Title:     "Getting Started",
				Text:      "Welcome to day one. Small habits compound into large results.",
				Turns: []lesson.DialogueTurn{
					{Speaker: lesson.SpeakerHostA, Text: "Welcome to day one of the program.", SequenceIndex: 0},
					{Speaker: lesson.SpeakerHostB, Text: "Today we talk about why small habits matter.", SequenceIndex: 1},
					{Speaker: lesson.SpeakerHostA, Text: "Small habits compound into large results.", SequenceIndex: 2},
				},
			},
		},
	}
}

func main() {
	configPath := flag.String("config", "lessoncast.yaml", "")
	programID := flag.String("program", "", "program id, random when empty")
	flag.Parse()

	cfg, err := loadStorageConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Provider != "" && cfg.Storage.Provider != "fs" {
		fmt.Fprintln(os.Stderr, "seed_program only supports the fs storage provider")
		os.Exit(1)
	}
	dir := "lesson_audio"
	if d, ok := cfg.Storage.Settings["dir"].(string); ok && d != "" {
		dir = d
	}

	pid := *programID
	if pid == "" {
		pid = uuid.NewString()
	}
	doc := sampleProgram(pid)

	path := filepath.Join(dir, "programs", pid+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded %s\n", path)
	fmt.Printf("generate with:\n  curl -X POST localhost:8080/programs/generate-lesson-audio -d '{\"lesson_id\":\"%s\"}'\n", doc.Lessons[0].ID)
}

func loadStorageConfig(path string) (storageConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return storageConfig{}, err
	}
	var cfg storageConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return storageConfig{}, err
	}
	return cfg, nil
}
