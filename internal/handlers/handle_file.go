package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/batch"
	"github.com/BatmanBruc/docx-quiz-bot/internal/contextkeys"
	"github.com/BatmanBruc/docx-quiz-bot/internal/files"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/go-telegram/bot/models"
)

const docxExt = ".docx"

// HandleFile downloads an uploaded .docx and adds it to the sender's batch.
// Files sent as one album share a batch.
func (bh *Handlers) HandleFile(ctx context.Context, b BotAPI, update *models.Update, userID int64) {
	if update == nil || update.Message == nil {
		return
	}
	lang := langFromCtx(ctx)
	chatID := update.Message.Chat.ID

	info, ok := contextkeys.GetFileInfo(ctx)
	if !ok || info.FileID == "" {
		bh.sendText(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	if !isDocx(info.FileName) {
		bh.sendText(ctx, b, chatID, messages.OnlyDocx(lang), nil)
		return
	}

	path, err := bh.downloader.Download(ctx, userID, info.FileID, info.FileName)
	if err != nil {
		if errors.Is(err, files.ErrFileTooLarge) {
			bh.sendText(ctx, b, chatID, messages.FileTooLarge(lang), nil)
			return
		}
		bh.log.Error(ctx, "Failed to download file", "file_id", info.FileID, "error", err)
		bh.sendText(ctx, b, chatID, messages.ErrorCannotProcessFile(lang, info.FileName), nil)
		return
	}

	key := batch.NewKey(userID, info.MediaGroupID, info.MessageID)
	f := batch.File{Path: path, Name: info.FileName, MessageID: info.MessageID}
	snap, err := bh.batches.AddFile(ctx, key, f, batch.Origin{ChatID: chatID, Lang: string(lang)})
	if err != nil {
		bh.log.Error(ctx, "Failed to add file to batch", "key", key.String(), "error", err)
		bh.artifacts.Remove(path)
		bh.sendText(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	bh.log.Debug(ctx, "File queued", "key", snap.Key.String(), "count", snap.FileCount)
}

func isDocx(name string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), docxExt)
}
