package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
)

var (
	semesterPattern = regexp.MustCompile(`(?i)(?:Học kỳ|Semester):\s*(\d+)`)
	yearPattern     = regexp.MustCompile(`(?i)(?:năm học|academic year):\s*([\d-]+)`)
)

/**
 * fieldPatterns data-content 中的字段匹配规则
 *
 * 值截止到 '<' 或换行，data-content 通常是带 <br> 的 HTML 片段
 */
type fieldPatterns struct {
	room    *regexp.Regexp
	period  *regexp.Regexp
	teacher *regexp.Regexp
}

type sessionFields struct {
	room       string
	teacher    string
	start, end int
	hasPeriod  bool
}

func compilePatterns(cfg config.ExtractorConfig) (*fieldPatterns, error) {
	room, err := labelPattern(cfg.RoomLabels, `\s*([^<\n]+)`)
	if err != nil {
		return nil, err
	}
	period, err := labelPattern(cfg.PeriodLabels, `\s*(\d+)\s*-\s*(\d+)`)
	if err != nil {
		return nil, err
	}
	teacher, err := labelPattern(cfg.TeacherLabels, `\s*([^<\n]*)`)
	if err != nil {
		return nil, err
	}
	return &fieldPatterns{room: room, period: period, teacher: teacher}, nil
}

// labelPattern 生成 "(?:标签1|标签2):值" 形式的正则
func labelPattern(labels []string, value string) (*regexp.Regexp, error) {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			quoted = append(quoted, regexp.QuoteMeta(l))
		}
	}
	if len(quoted) == 0 {
		// 没有配置标签时永不匹配
		return regexp.Compile(`[^\s\S]`)
	}
	return regexp.Compile(`(?:` + strings.Join(quoted, "|") + `):` + value)
}

/**
 * parse 从 data-content 中提取教室、节次、教师
 *
 * 缺失或为空的教室、教师使用占位值；节次缺失时 hasPeriod=false
 */
func (p *fieldPatterns) parse(content string) sessionFields {
	fields := sessionFields{
		room:    models.UnknownRoom,
		teacher: models.UnspecifiedTeacher,
	}

	if m := p.room.FindStringSubmatch(content); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			fields.room = v
		}
	}
	if m := p.teacher.FindStringSubmatch(content); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			fields.teacher = v
		}
	}
	if m := p.period.FindStringSubmatch(content); m != nil {
		start, errStart := strconv.Atoi(m[1])
		end, errEnd := strconv.Atoi(m[2])
		if errStart == nil && errEnd == nil && start > 0 && end >= start {
			fields.start, fields.end, fields.hasPeriod = start, end, true
		}
	}
	return fields
}

/**
 * extractMetadata 提取教师、学期、学年
 */
func (e *Extractor) extractMetadata(doc *goquery.Document) models.Metadata {
	meta := models.Metadata{
		Teacher:       models.UnknownTeacher,
		Semester:      models.UnknownLabel,
		AcademicYear:  models.UnknownLabel,
		ExtractedDate: e.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	if e.cfg.TeacherSelector != "" {
		if teacher := collapseSpace(doc.Find(e.cfg.TeacherSelector).First().Text()); teacher != "" {
			meta.Teacher = teacher
		}
	}

	if e.cfg.YearSelector != "" {
		text := collapseSpace(doc.Find(e.cfg.YearSelector).First().Text())
		if m := semesterPattern.FindStringSubmatch(text); m != nil {
			meta.Semester = m[1]
		}
		if m := yearPattern.FindStringSubmatch(text); m != nil {
			meta.AcademicYear = m[1]
		}
	}
	return meta
}
