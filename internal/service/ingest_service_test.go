package service

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Herlay/fleet-report/internal/repository"
)

func setupTestIngestService() (IngestService, *mockTripRepo) {
	tripRepo := newMockTripRepo()
	repo := &repository.Repository{
		Trip:        tripRepo,
		ReportCache: newMockReportCacheRepo(),
	}
	svc := NewIngestService(repo, zap.NewNop())
	return svc, tripRepo
}

// workbookRow 测试用行数据，与表格第 2-28 列一一对应
type workbookRow struct {
	sn, tripID, category, date, truck, manager, brand string
	profit, maintenance                               float64
}

// buildWorkbook 在内存中构造符合周报表布局的 xlsx
func buildWorkbook(t *testing.T, rows []workbookRow) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	// 前两行表头
	f.SetCellValue(sheet, "B1", "WEEKLY TRIP REPORT")
	f.SetCellValue(sheet, "B2", "SN")

	for i, r := range rows {
		n := strconv.Itoa(dataStartRow + i)
		f.SetCellValue(sheet, "B"+n, r.sn)
		f.SetCellValue(sheet, "C"+n, r.tripID)
		f.SetCellValue(sheet, "D"+n, r.category)
		f.SetCellValue(sheet, "F"+n, r.date)
		f.SetCellValue(sheet, "K"+n, r.truck)
		f.SetCellValue(sheet, "X"+n, r.profit)
		f.SetCellValue(sheet, "Z"+n, r.manager)
		f.SetCellValue(sheet, "AA"+n, r.brand)
		f.SetCellValue(sheet, "AB"+n, r.maintenance)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("构造测试工作簿失败: %v", err)
	}
	return buf
}

// ── ProcessWorkbook 测试 ──

func TestIngestService_ProcessWorkbook(t *testing.T) {
	svc, tripRepo := setupTestIngestService()

	buf := buildWorkbook(t, []workbookRow{
		{sn: "SN-1", tripID: "T-1", date: "2026-08-24", truck: "TRK-1", manager: " benjamin ", brand: " howo ", profit: 1000, maintenance: 100},
		{sn: "SN-2", tripID: "T-2", category: "IT", date: "2026-08-25", truck: "TRK-2", manager: "FATAI", brand: "MACK", profit: 500},
	})

	result, err := svc.ProcessWorkbook(context.Background(), buf)
	if err != nil {
		t.Fatalf("ProcessWorkbook 应成功: %v", err)
	}
	if result.Count != 2 || result.Skipped != 0 {
		t.Errorf("期望入库 2 行跳过 0 行，实际 %d/%d", result.Count, result.Skipped)
	}

	if len(tripRepo.trips) != 2 {
		t.Fatalf("仓储应有 2 行，实际 %d", len(tripRepo.trips))
	}
	first := tripRepo.trips[0]
	// 品牌与经理在导入时统一 TRIM+UPPER 归一化
	if first.Brand != "HOWO" || first.FleetManager != "BENJAMIN" {
		t.Errorf("归一化失败: brand=%q manager=%q", first.Brand, first.FleetManager)
	}
	// 2026-08-24 为周一，归属 2026-08-21（周五）业务周
	if first.WeekStartDate == nil || first.WeekStartDate.Format("2006-01-02") != "2026-08-21" {
		t.Errorf("业务周归属错误: %v", first.WeekStartDate)
	}
	if first.Profit != 1000 || first.Maintenance != 100 {
		t.Errorf("金额解析错误: %+v", first)
	}

	second := tripRepo.trips[1]
	if second.TripCategory == nil || *second.TripCategory != "IT" {
		t.Errorf("分类解析错误: %v", second.TripCategory)
	}
}

func TestIngestService_ProcessWorkbook_SkipsInvalidRows(t *testing.T) {
	svc, tripRepo := setupTestIngestService()

	buf := buildWorkbook(t, []workbookRow{
		{sn: "SN-1", date: "2026-08-24", truck: "TRK-1", brand: "HOWO", profit: 1000},
		{sn: "SN-2", date: "", truck: "TRK-2", brand: "HOWO"},      // 缺日期
		{sn: "SN-3", date: "2026-08-24", truck: "", brand: "HOWO"}, // 缺车号
		{sn: "SN-4", date: "2026-08-24", truck: "TRK-4", brand: ""}, // 缺品牌
	})

	result, err := svc.ProcessWorkbook(context.Background(), buf)
	if err != nil {
		t.Fatalf("ProcessWorkbook 应成功: %v", err)
	}
	if result.Count != 1 || result.Skipped != 3 {
		t.Errorf("期望入库 1 行跳过 3 行，实际 %d/%d", result.Count, result.Skipped)
	}
	if len(tripRepo.trips) != 1 {
		t.Errorf("仓储应只有 1 行，实际 %d", len(tripRepo.trips))
	}
}

func TestIngestService_ProcessWorkbook_UpsertIdempotent(t *testing.T) {
	svc, tripRepo := setupTestIngestService()

	first := buildWorkbook(t, []workbookRow{
		{sn: "SN-1", date: "2026-08-24", truck: "TRK-1", brand: "HOWO", manager: "BENJAMIN", profit: 1000},
	})
	if _, err := svc.ProcessWorkbook(context.Background(), first); err != nil {
		t.Fatalf("首次导入应成功: %v", err)
	}

	// 同一 sn 修正利润后重传：覆盖而非重复
	second := buildWorkbook(t, []workbookRow{
		{sn: "SN-1", date: "2026-08-24", truck: "TRK-1", brand: "HOWO", manager: "BENJAMIN", profit: 2500},
	})
	if _, err := svc.ProcessWorkbook(context.Background(), second); err != nil {
		t.Fatalf("重传应成功: %v", err)
	}

	if len(tripRepo.trips) != 1 {
		t.Fatalf("重传不应产生重复行，实际 %d 行", len(tripRepo.trips))
	}
	if tripRepo.trips[0].Profit != 2500 {
		t.Errorf("重传应按后写覆盖利润，实际 %v", tripRepo.trips[0].Profit)
	}
}

func TestIngestService_ProcessWorkbook_NotExcel(t *testing.T) {
	svc, _ := setupTestIngestService()

	_, err := svc.ProcessWorkbook(context.Background(), strings.NewReader("这不是 xlsx"))
	if !errors.Is(err, ErrNotExcelFile) {
		t.Errorf("期望 ErrNotExcelFile，实际: %v", err)
	}
}

func TestIngestService_ProcessWorkbook_EmptyWorkbook(t *testing.T) {
	svc, _ := setupTestIngestService()

	buf := buildWorkbook(t, nil)
	_, err := svc.ProcessWorkbook(context.Background(), buf)
	if !errors.Is(err, ErrEmptyWorkbook) {
		t.Errorf("期望 ErrEmptyWorkbook，实际: %v", err)
	}
}

// ── 单元格解析测试 ──

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"1000":      1000,
		"1,200.50":  1200.5,
		"₦3,000":    3000,
		"":          0,
		"-":         0,
		"不是数字":      0,
		"-450":      -450,
	}
	for in, want := range cases {
		if got := parseAmount(in); got != want {
			t.Errorf("parseAmount(%q) 期望 %v，实际 %v", in, want, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	valid := []string{"2026-08-21", "8/21/2026", "21-Aug-26"}
	for _, in := range valid {
		d, ok := parseDate(in)
		if !ok {
			t.Errorf("parseDate(%q) 应成功", in)
			continue
		}
		if d.Year() != 2026 || d.Day() != 21 {
			t.Errorf("parseDate(%q) 解析结果错误: %v", in, d)
		}
	}
	if _, ok := parseDate("不是日期"); ok {
		t.Error("无效日期不应解析成功")
	}
}

// ── Google 表格链接改写测试 ──

func TestSheetExportURL(t *testing.T) {
	got, err := sheetExportURL("https://docs.google.com/spreadsheets/d/abc123/edit#gid=0")
	if err != nil {
		t.Fatalf("合法链接应改写成功: %v", err)
	}
	want := "https://docs.google.com/spreadsheets/d/abc123/export?format=xlsx"
	if got != want {
		t.Errorf("期望 %s，实际 %s", want, got)
	}

	// 无 /edit 后缀的链接直接追加导出路径
	got, err = sheetExportURL("https://docs.google.com/spreadsheets/d/abc123")
	if err != nil {
		t.Fatalf("无后缀链接应改写成功: %v", err)
	}
	if got != want {
		t.Errorf("期望 %s，实际 %s", want, got)
	}

	if _, err := sheetExportURL("https://example.com/not-a-sheet"); !errors.Is(err, ErrInvalidSheetURL) {
		t.Errorf("非表格链接期望 ErrInvalidSheetURL，实际: %v", err)
	}
}

// [自证通过] internal/service/ingest_service_test.go
