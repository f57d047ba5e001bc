package main

import (
	"fmt"

	"pastpapers-go/internal/pipeline"
	"pastpapers-go/internal/repository"
	"pastpapers-go/pkg/es"
	"pastpapers-go/pkg/kafka"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tasks"
	"pastpapers-go/pkg/tika"

	"github.com/spf13/cobra"
)

// newReindexCmd 为所有论文重建全文索引。配置了 Kafka 时投递任务，--sync 时在本进程内直接处理。
func newReindexCmd(app *appContext) *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the full-text index for every paper",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.openDB()
			if err != nil {
				return err
			}
			paperRepo := repository.NewPaperRepository(db)
			papers, err := paperRepo.FindAll()
			if err != nil {
				return fmt.Errorf("load papers: %w", err)
			}

			var process func(task tasks.PaperIndexTask) error
			if sync || app.cfg.Kafka.Brokers == "" {
				if err := es.InitES(app.cfg.Elasticsearch); err != nil {
					return fmt.Errorf("elasticsearch: %w", err)
				}
				store, err := storage.New(app.cfg.Storage, app.cfg.MinIO)
				if err != nil {
					return err
				}
				processor := pipeline.NewProcessor(paperRepo, store, tika.NewClient(app.cfg.Tika), es.NewPaperIndex(es.ESClient, app.cfg.Elasticsearch.IndexName))
				process = func(task tasks.PaperIndexTask) error {
					return processor.Process(cmd.Context(), task)
				}
			} else {
				producer := kafka.NewProducer(app.cfg.Kafka)
				defer producer.Close()
				process = func(task tasks.PaperIndexTask) error {
					return producer.ProducePaperTask(cmd.Context(), task)
				}
			}

			failed := 0
			for _, p := range papers {
				task := tasks.PaperIndexTask{
					Action:     tasks.ActionIndex,
					PaperID:    p.ID,
					FileKey:    p.FileKey,
					Title:      p.Title,
					CourseCode: p.CourseCode,
					Department: p.Department,
					Year:       p.Year,
					Semester:   p.Semester,
				}
				if err := process(task); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "paper %d: %v\n", p.ID, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reindexed %d papers (%d failed).\n", len(papers)-failed, failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "index in-process instead of queueing Kafka tasks")
	return cmd
}
