package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/chenyang-zz/teachload/internal/domain/analyzer"
	"github.com/chenyang-zz/teachload/internal/domain/models"
)

// requiredKeys JSON 快照必须包含的顶层字段
var requiredKeys = []string{"weeks", "metadata"}

/**
 * extractJSON JSON 快照路径
 *
 * 先校验顶层字段，再整体解码；课程汇总总是重新计算，冲突标记不被信任
 */
func (e *Extractor) extractJSON(raw string) (*models.ScheduleData, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	for _, key := range requiredKeys {
		value, ok := probe[key]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, fmt.Errorf("%w: 缺少字段 %q", ErrInvalidStructure, key)
		}
	}

	var data models.ScheduleData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	for i := range data.Weeks {
		data.Weeks[i].Normalize()
		for d := range data.Weeks[i].Days {
			day := &data.Weeks[i].Days[d]
			for _, shift := range models.Shifts {
				bucket := *day.Bucket(shift)
				for s := range bucket {
					bucket[s].HasConflict = false
				}
			}
		}
	}
	data.AllCourses = analyzer.AggregateCourses(data.Weeks)

	return &data, nil
}
