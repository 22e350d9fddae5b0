package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const exportPageSize = 100

type exportLine struct {
	ID            uint64                 `json:"id"`
	UserID        string                 `json:"userId"`
	Type          string                 `json:"type"`
	Activity      string                 `json:"activity"`
	Amount        int64                  `json:"amount"`
	BalanceBefore int64                  `json:"balanceBefore"`
	BalanceAfter  int64                  `json:"balanceAfter"`
	Description   string                 `json:"description"`
	RelatedID     *string                `json:"relatedId,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     string                 `json:"createdAt"`
}

func newExportCmd(a *app) *cobra.Command {
	var out, bucket string
	cmd := &cobra.Command{
		Use:   "export <user-id>",
		Short: "Export a user's ledger as JSON lines",
		Long: `Export every ledger entry of a user, oldest first, one JSON object per line.

With --out the file is written locally ("-" for stdout). Otherwise it is
uploaded to --bucket (default EXPORT_BUCKET) and a tokenized download URL
is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			entries, err := collectLedger(cmd.Context(), a.ledger, userID)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := writeLedgerJSONL(&buf, entries); err != nil {
				return err
			}

			switch {
			case out == "-":
				_, err = io.Copy(cmd.OutOrStdout(), &buf)
				return err
			case out != "":
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(entries), out)
				return nil
			}

			if bucket == "" && a.cfg != nil {
				bucket = a.cfg.ExportBucket
			}
			if bucket == "" {
				return fmt.Errorf("no destination: pass --out or set --bucket / EXPORT_BUCKET")
			}
			client, err := newStorageClient(cmd.Context())
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			defer client.Close()

			path := exportObjectPath(userID, time.Now().UTC())
			link, err := uploadWithToken(cmd.Context(), client, bucket, path, buf.Bytes())
			if err != nil {
				return fmt.Errorf("upload %s: %w", path, err)
			}
			a.logger.Info("ledger exported",
				zap.String("user_id", userID),
				zap.Int("entries", len(entries)),
				zap.String("object", path))
			printf(cmd.OutOrStdout(), "%s\n", link)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", `local file to write ("-" for stdout)`)
	cmd.Flags().StringVar(&bucket, "bucket", "", "storage bucket (default EXPORT_BUCKET)")
	return cmd
}

// collectLedger pages forward by id so entries posted during the export
// are neither repeated nor skipped.
func collectLedger(ctx context.Context, ledger repository.LedgerRepository, userID string) ([]model.LedgerEntry, error) {
	var (
		all    []model.LedgerEntry
		lastID uint64
	)
	for {
		page, err := ledger.After(ctx, userID, lastID, exportPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
		lastID = page[len(page)-1].ID
	}
}

func writeLedgerJSONL(w io.Writer, entries []model.LedgerEntry) error {
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(exportLine{
			ID:            e.ID,
			UserID:        e.UserID,
			Type:          string(e.Type),
			Activity:      e.Activity,
			Amount:        e.Amount,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			Description:   e.Description,
			RelatedID:     e.RelatedID,
			Metadata:      e.Metadata,
			CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	return nil
}

func exportObjectPath(userID string, at time.Time) string {
	return fmt.Sprintf("exports/ledger/%s/%s.jsonl", url.PathEscape(userID), at.Format("20060102T150405Z"))
}

func newStorageClient(ctx context.Context) (*storage.Client, error) {
	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
	if err != nil {
		return nil, err
	}
	return storage.NewClient(ctx, option.WithCredentials(creds))
}

func uploadWithToken(ctx context.Context, client *storage.Client, bucketName, objectPath string, data []byte) (string, error) {
	token := uuid.NewString()
	w := client.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/x-ndjson"
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucketName, url.PathEscape(objectPath), token), nil
}
