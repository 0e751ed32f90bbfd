package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

var errSave = errors.New("save error")

func photoApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("wallet_address", "addr_test1abc")
		return c.Next()
	}
	RegisterRoutes(app.Group("/storage"), NewService(mock), auth)
	return app, mock
}

func TestPhotoUploadHandler(t *testing.T) {
	app, mock := photoApp(t)

	mock.ExpectExec(`INSERT INTO trail_photos`).
		WithArgs(pgxmock.AnyArg(), "addr_test1abc", "t1", "https://storage.vintrek.com/photos/summit.jpg").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body, _ := json.Marshal(map[string]string{"trail_id": "t1", "file_name": "summit.jpg"})
	req := httptest.NewRequest(http.MethodPost, "/storage/photos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status: %v %d", err, resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPhotoUploadError(t *testing.T) {
	app, mock := photoApp(t)

	mock.ExpectExec(`INSERT INTO trail_photos`).
		WithArgs(pgxmock.AnyArg(), "addr_test1abc", "t1", "https://storage.vintrek.com/photos/upload").
		WillReturnError(errSave)

	body, _ := json.Marshal(map[string]string{"trail_id": "t1"})
	req := httptest.NewRequest(http.MethodPost, "/storage/photos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected error status, got %d", resp.StatusCode)
	}
}

func TestPhotosForTrail(t *testing.T) {
	app, mock := photoApp(t)

	mock.ExpectQuery(`SELECT url FROM trail_photos`).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows([]string{"url"}).
			AddRow("https://storage.vintrek.com/photos/a.jpg").
			AddRow("https://storage.vintrek.com/photos/b.jpg"))

	req := httptest.NewRequest(http.MethodGet, "/storage/photos/t1", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v %d", err, resp.StatusCode)
	}

	var body struct {
		Photos []string `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Photos) != 2 {
		t.Fatalf("photos: %v %v", body, err)
	}
}
