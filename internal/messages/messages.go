package messages

import (
	"fmt"

	"golang.org/x/text/language"
)

// Catalog holds the user-visible status texts for one language.
type Catalog struct {
	Tag language.Tag

	SelectFile     string
	Uploading      string
	UploadFailed   string
	Uploaded       string // formatted with the resume id
	NoText         string
	Extracting     string
	Completed      string
	NetworkFailure string
}

// UploadedWithID returns the upload success status for resumeID.
func (c Catalog) UploadedWithID(resumeID string) string {
	return fmt.Sprintf(c.Uploaded, resumeID)
}

var English = Catalog{
	Tag:            language.English,
	SelectFile:     "Please select a PDF file",
	Uploading:      "Uploading...",
	UploadFailed:   "Parsing failed",
	Uploaded:       "Parsed successfully, ID: %s",
	NoText:         "No text extracted",
	Extracting:     "Extracting structured JSON...",
	Completed:      "Parsing and structuring complete",
	NetworkFailure: "Network error or service not running",
}

var Chinese = Catalog{
	Tag:            language.Chinese,
	SelectFile:     "请先选择 PDF 文件",
	Uploading:      "上传中...",
	UploadFailed:   "解析失败",
	Uploaded:       "解析成功，ID: %s",
	NoText:         "未提取到文本",
	Extracting:     "正在抽取结构化 JSON...",
	Completed:      "解析与结构化完成",
	NetworkFailure: "网络错误或服务未启动",
}

var catalogs = []Catalog{English, Chinese}

var matcher = language.NewMatcher([]language.Tag{English.Tag, Chinese.Tag})

// For returns the catalog best matching the given BCP 47 tag list
// (for example "zh-CN" or "en-GB,zh;q=0.5"). Unknown or empty input
// falls back to English.
func For(tags string) Catalog {
	if tags == "" {
		return English
	}
	prefs, _, err := language.ParseAcceptLanguage(tags)
	if err != nil || len(prefs) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return English
	}
	return catalogs[idx]
}
