package client

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// BarcodeReader decodes QR, Code 128 and EAN-13 symbols printed on a page.
// gozxing readers keep scratch buffers, so a fresh set is built per Scan.
type BarcodeReader struct {
	newReaders func() []gozxing.Reader
}

func NewBarcodeReader() *BarcodeReader {
	return &BarcodeReader{
		newReaders: func() []gozxing.Reader {
			return []gozxing.Reader{
				qrcode.NewQRCodeReader(),
				oned.NewCode128Reader(),
				oned.NewEAN13Reader(),
			}
		},
	}
}

// Scan returns the payloads of every symbol type found on the page, at most
// one per reader. A page without barcodes yields nil.
func (br *BarcodeReader) Scan(img image.Image) []string {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	var found []string
	for _, reader := range br.newReaders() {
		result, err := reader.Decode(bmp, hints)
		if err != nil {
			continue
		}
		if text := result.GetText(); text != "" {
			found = append(found, text)
		}
	}
	return found
}
