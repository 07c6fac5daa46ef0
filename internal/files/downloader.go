package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

const defaultFileServer = "https://api.telegram.org"

var ErrFileTooLarge = errors.New("file is too large")

// FileLocator resolves a Telegram file id to its path on the file server.
// *bot.Bot satisfies it.
type FileLocator interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
}

type DownloaderOption func(*Downloader)

func WithFileServer(url string) DownloaderOption {
	return func(d *Downloader) { d.server = url }
}

func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

func WithMaxSize(n int64) DownloaderOption {
	return func(d *Downloader) { d.maxSize = n }
}

// Downloader copies user uploads from Telegram into Storage. Requests to the
// file server are throttled with a shared limiter.
type Downloader struct {
	locator FileLocator
	token   string
	storage *Storage
	server  string
	client  *http.Client
	limiter *rate.Limiter
	maxSize int64
}

func NewDownloader(locator FileLocator, token string, storage *Storage, perSecond int, opts ...DownloaderOption) *Downloader {
	if perSecond <= 0 {
		perSecond = 20
	}
	d := &Downloader{
		locator: locator,
		token:   token,
		storage: storage,
		server:  defaultFileServer,
		client:  &http.Client{Timeout: 5 * time.Minute},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 2*perSecond),
		maxSize: 20 << 20,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches the file and returns its local path.
func (d *Downloader) Download(ctx context.Context, userID int64, fileID, name string) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	file, err := d.locator.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}
	if file.FileSize > 0 && d.maxSize > 0 && file.FileSize > d.maxSize {
		return "", ErrFileTooLarge
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", d.server, d.token, file.FilePath)
	dest := d.storage.NewPath(userID, name)
	if err := d.fetch(ctx, fileURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (d *Downloader) fetch(ctx context.Context, fileURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", stripURL(err))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}

	body := io.Reader(resp.Body)
	if d.maxSize > 0 {
		body = io.LimitReader(resp.Body, d.maxSize+1)
	}
	n, err := io.Copy(out, body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && d.maxSize > 0 && n > d.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(destPath)
		return err
	}
	return nil
}

// stripURL drops the request URL from transport errors; it carries the bot token.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
