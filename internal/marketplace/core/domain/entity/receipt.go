package entity

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const MaxReceiptSize = 5 << 20

var (
	ErrReceiptTooLarge = errors.New("receipt exceeds 5MB")
	ErrReceiptType     = errors.New("receipt must be a jpg, jpeg, png or pdf file")
)

var receiptTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// ValidateReceipt checks the file name extension and size of an uploaded payment receipt.
func ValidateReceipt(name string, size int64) error {
	if _, ok := receiptTypes[strings.ToLower(filepath.Ext(name))]; !ok {
		return fmt.Errorf("%w: %q", ErrReceiptType, name)
	}
	if size > MaxReceiptSize {
		return fmt.Errorf("%w: %d bytes", ErrReceiptTooLarge, size)
	}
	return nil
}

// ReceiptContentType maps an accepted receipt name to its MIME type.
func ReceiptContentType(name string) string {
	return receiptTypes[strings.ToLower(filepath.Ext(name))]
}
