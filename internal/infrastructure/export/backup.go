package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chenyang-zz/teachload/internal/domain/models"
)

/**
 * WriteJSON 写出完整备份，可直接作为抽取器的 JSON 输入重新导入
 */
func (e *Exporter) WriteJSON(w io.Writer, data *models.ScheduleData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("写入备份失败: %w", err)
	}
	return nil
}
