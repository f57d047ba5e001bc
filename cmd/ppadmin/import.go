package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pastpapers-go/internal/repository"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/kafka"
	"pastpapers-go/pkg/storage"

	"github.com/spf13/cobra"
)

// parseSeedName 从 <COURSE>_<title>.pdf 形式的文件名中取出课程代码和标题，下划线在标题中视为空格。
func parseSeedName(name string) (courseCode, title string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	code, rest, found := strings.Cut(base, "_")
	if !found {
		return "", ""
	}
	return strings.TrimSpace(code), strings.TrimSpace(strings.ReplaceAll(rest, "_", " "))
}

// newImportCmd 把目录中的文件作为一批论文导入，走与后台批量上传相同的流程，重复的论文会被跳过。
func newImportCmd(app *appContext) *cobra.Command {
	var meta service.BulkMeta
	var owner string

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Bulk import papers named <COURSE>_<title>.pdf from a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := os.ReadDir(args[0])
			if err != nil {
				return err
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if !e.IsDir() {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)

			var files []service.Upload
			var codes, titles []string
			for _, name := range names {
				up, err := service.UploadFromFile(filepath.Join(args[0], name))
				if err != nil {
					return err
				}
				code, title := parseSeedName(name)
				files = append(files, up)
				codes = append(codes, code)
				titles = append(titles, title)
			}

			db, err := app.openDB()
			if err != nil {
				return err
			}
			user, err := repository.NewUserRepository(db).FindByUsername(owner)
			if err != nil {
				return fmt.Errorf("owner %q: %w", owner, err)
			}
			store, err := storage.New(app.cfg.Storage, app.cfg.MinIO)
			if err != nil {
				return err
			}
			var producer service.IndexProducer
			if app.cfg.Kafka.Brokers != "" {
				p := kafka.NewProducer(app.cfg.Kafka)
				defer p.Close()
				producer = p
			}

			bulk := service.NewBulkUploadService(repository.NewPaperRepository(db), store, producer)
			result, err := bulk.BulkUpload(cmd.Context(), user, meta, files, codes, titles)
			if err != nil {
				return err
			}
			for _, msg := range result.Messages {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d papers imported.\n", result.Created)
			return nil
		},
	}
	cmd.Flags().StringVar(&meta.Department, "department", "", "department shared by every file")
	cmd.Flags().StringVar(&meta.Year, "year", "", "year shared by every file")
	cmd.Flags().StringVar(&meta.Semester, "semester", "", "semester shared by every file")
	cmd.Flags().StringVar(&owner, "owner", "admin", "username recorded as the uploader")
	return cmd
}
