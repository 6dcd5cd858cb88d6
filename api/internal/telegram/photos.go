package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// acceptPhoto collects photos of one album (or consecutive photos of one
// chat) and starts a single run once no new photo arrived for debounce.
func (r *Router) acceptPhoto(ctx context.Context, msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]
	url, err := r.Bot.GetFileDirectURL(ph.FileID)
	if err != nil {
		r.send(cid, "❌ Error: "+err.Error())
		return
	}
	imgBytes, err := download(ctx, url)
	if err != nil {
		r.send(cid, "❌ Error: "+err.Error())
		return
	}

	key := "chat:" + fmt.Sprint(cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}

	first := r.addToBatch(ctx, key, cid, msg.MediaGroupID, imgBytes)
	if first {
		r.send(cid, "📷 Photo received. If the question spans several photos, send them right away and I will join the pages.")
	}
}

// addToBatch appends img to the batch under key and re-arms its timer.
// It reports whether img opened a new batch.
func (r *Router) addToBatch(ctx context.Context, key string, chatID int64, groupID string, img []byte) bool {
	for {
		bi, _ := batches.LoadOrStore(key, &photoBatch{
			ChatID: chatID, Key: key, MediaGroupID: groupID, images: make([][]byte, 0, 4),
		})
		b := bi.(*photoBatch)

		b.mu.Lock()
		// batch could have been taken by processBatch meanwhile
		if cur, ok := batches.Load(key); !ok || cur != b {
			b.mu.Unlock()
			continue
		}
		b.images = append(b.images, img)
		first := len(b.images) == 1
		if b.timer != nil {
			b.timer.Stop()
		}
		b.timer = time.AfterFunc(debounce, func() { r.processBatch(ctx, b) })
		b.mu.Unlock()
		return first
	}
}

func (r *Router) processBatch(ctx context.Context, b *photoBatch) {
	b.mu.Lock()
	if cur, ok := batches.Load(b.Key); !ok || cur != b {
		// уже обработан сработавшим ранее таймером
		b.mu.Unlock()
		return
	}
	images := append([][]byte(nil), b.images...)
	chatID := b.ChatID
	batches.Delete(b.Key)
	b.mu.Unlock()

	if len(images) == 0 {
		return
	}
	img := images[0]
	if len(images) > 1 {
		merged, err := combineAsOne(images)
		if err != nil {
			r.send(chatID, fmt.Sprintf("❌ Error: joining pages: %v", err))
			return
		}
		img = merged
	}
	r.solve(ctx, chatID, img)
}

// combineAsOne stacks pages vertically on white, centred, as one PNG.
// Downscaling is left to the pipeline.
func combineAsOne(images [][]byte) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0
	for i, b := range images {
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		decoded = append(decoded, img)
		if w := img.Bounds().Dx(); w > maxW {
			maxW = w
		}
		sumH += img.Bounds().Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("empty images")
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, sumH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	y := 0
	for _, img := range decoded {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		x := (maxW - w) / 2
		draw.Draw(dst, image.Rect(x, y, x+w, y+h), img, img.Bounds().Min, draw.Over)
		y += h
	}

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

var httpc = &http.Client{Timeout: 60 * time.Second}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}
