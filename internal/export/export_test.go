package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

var saleTime = time.Date(2024, 6, 1, 10, 30, 5, 0, time.UTC)

func sampleSale() models.Sale {
	cola := models.Product{Meta: models.NewMeta("p-cola", saleTime), Name: "Cola <large>", Kind: models.ProductDrink}
	pop := models.Product{Meta: models.NewMeta("p-pop", saleTime), Name: "Popcorn", Kind: models.ProductFood}
	return models.Sale{
		Meta:    models.NewMeta("s-1", saleTime),
		Account: models.Account{Meta: models.NewMeta("ABC123", saleTime)},
		Seat:    models.Seat{Meta: models.NewMeta("A1", saleTime), Kind: models.SeatNormal},
		Lines: []models.SaleLine{
			{Meta: models.NewMeta("l-1", saleTime), SaleID: "s-1", Product: cola, Quantity: 2, UnitPrice: decimal.RequireFromString("3")},
			{Meta: models.NewMeta("l-2", saleTime), SaleID: "s-1", Product: pop, Quantity: 1, UnitPrice: decimal.RequireFromString("12")},
		},
	}
}

func TestRenderReceipt_ContainsSaleDetails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderReceipt(&buf, sampleSale()))

	out := buf.String()
	for _, s := range []string{
		"Customer: ABC123",
		"Seat: A1 (NORMAL) 5.00 €",
		"Popcorn 12.00 € x 1 = 12.00 €",
		"Total: 23.00 €",
		"Cola &lt;large&gt;",
	} {
		assert.Contains(t, out, s)
	}
	assert.NotContains(t, out, "No products")
}

func TestRenderReceipt_NoLines(t *testing.T) {
	sale := sampleSale()
	sale.Lines = nil
	sale.Seat.Kind = models.SeatVIP

	var buf bytes.Buffer
	require.NoError(t, RenderReceipt(&buf, sale))

	out := buf.String()
	assert.Contains(t, out, "No products")
	assert.Contains(t, out, "Total: 8.00 €")
	assert.NotContains(t, out, "<ul>")
}

func TestReceiptNameAndKey(t *testing.T) {
	sale := sampleSale()
	assert.Equal(t, "receipt_A1_ABC123_20240601-103005.html", ReceiptName(sale))
	assert.Equal(t, "receipts/2024/06/01/receipt_A1_ABC123_20240601-103005.html", ReceiptKey(sale))
}

func TestFileExporter_WritesReceipt(t *testing.T) {
	dataDir := t.TempDir()
	e := NewFileExporter(dataDir)

	path, err := e.Export(context.Background(), sampleSale())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "sales", "receipt_A1_ABC123_20240601-103005.html"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Total: 23.00 €")
}

func TestFileExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileExporter(t.TempDir()).Export(ctx, sampleSale())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileExporter_WriteError(t *testing.T) {
	orig := writeFile
	t.Cleanup(func() { writeFile = orig })
	writeFile = func(dir, name string, data []byte) (string, error) {
		return "", errors.New("disk full")
	}

	_, err := NewFileExporter(t.TempDir()).Export(context.Background(), sampleSale())
	require.EqualError(t, err, "disk full")
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Exporter_Export(t *testing.T) {
	fp := &fakePutter{}
	e := &S3Exporter{client: fp, bucket: "receipts-bucket"}

	loc, err := e.Export(context.Background(), sampleSale())
	require.NoError(t, err)
	assert.Equal(t, "s3://receipts-bucket/receipts/2024/06/01/receipt_A1_ABC123_20240601-103005.html", loc)
	assert.Equal(t, "receipts-bucket", aws.ToString(fp.in.Bucket))
	assert.Equal(t, "text/html; charset=utf-8", aws.ToString(fp.in.ContentType))
	assert.Contains(t, fp.body, "Total: 23.00 €")
}

func TestS3Exporter_PutError(t *testing.T) {
	e := &S3Exporter{client: &fakePutter{err: errors.New("denied")}, bucket: "b"}

	_, err := e.Export(context.Background(), sampleSale())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.Contains(t, err.Error(), "s3://b/receipts/")
}

func TestNewS3Exporter_WiresConfig(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var region string
	var withCreds bool
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		withCreds = lo.Credentials != nil
		return aws.Config{}, nil
	}

	var endpoint string
	var pathStyle bool
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		endpoint = aws.ToString(o.BaseEndpoint)
		pathStyle = o.UsePathStyle
		return &s3.Client{}
	}

	e, err := NewS3Exporter(context.Background(), S3Config{
		Bucket:       "b",
		Region:       "eu-west-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
	})
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "eu-west-1", region)
	assert.True(t, withCreds)
	assert.Equal(t, "http://127.0.0.1:9000", endpoint)
	assert.True(t, pathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3Exporter(context.Background(), S3Config{Bucket: "b"})
	require.ErrorContains(t, err, "load-fail")

	_, err = NewS3Exporter(context.Background(), S3Config{})
	require.Error(t, err)
}

type stubSink struct {
	loc string
	err error
	n   int
}

func (s *stubSink) Export(context.Context, models.Sale) (string, error) {
	s.n++
	return s.loc, s.err
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	a := &stubSink{loc: "/tmp/a.html"}
	b := &stubSink{err: errors.New("b failed")}
	c := &stubSink{loc: "s3://x/y"}
	d := &stubSink{err: errors.New("d failed")}

	loc, err := Multi(a, nil, b, c, d).Export(context.Background(), sampleSale())
	assert.Equal(t, "/tmp/a.html, s3://x/y", loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b failed")
	assert.Contains(t, err.Error(), "d failed")
	for _, s := range []*stubSink{a, b, c, d} {
		assert.Equal(t, 1, s.n)
	}
}

func TestMulti_Empty(t *testing.T) {
	loc, err := Multi().Export(context.Background(), sampleSale())
	require.NoError(t, err)
	assert.Empty(t, loc)
}

func TestSaveSeats_WritesSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	seats := []models.Seat{
		{Meta: models.NewMeta("A1", saleTime), Status: models.SeatActive, Occupancy: models.OccupancyOccupied, Kind: models.SeatNormal},
		{Meta: models.NewMeta("E7", saleTime), Status: models.SeatOutOfService, Occupancy: models.OccupancyFree, Kind: models.SeatVIP},
	}

	path, err := SaveSeats(dataDir, seats, saleTime)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "seats", "seats_20240601-103005.json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got seatSnapshot
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, got.At.Equal(saleTime))
	require.Len(t, got.Seats, 2)
	assert.Equal(t, "OCCUPIED", got.Seats[0].Occupancy)
	assert.Equal(t, "8.00", got.Seats[1].Price)
	assert.Equal(t, int64(1), got.Seats[1].Version)
	assert.True(t, strings.HasPrefix(string(b), "{\n  \"at\""))
}
