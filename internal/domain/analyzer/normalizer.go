/**
 * Package analyzer 教学日程分析组件
 *
 * 负责课程汇总、冲突检测、教师归属判定以及工作量统计
 */

package analyzer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/chenyang-zz/teachload/internal/domain/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// titlePattern 学术职称前缀（去除变音符号之后匹配）
var titlePattern = regexp.MustCompile(`ths\.|ts\.|pgs\.|gs\.|gv\.`)

// strokeReplacer đ 不是组合字符，NFD 无法拆解，单独映射
var strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "d")

/**
 * NormalizeName 标准化教师姓名
 *
 * 小写、去除变音符号、去除职称前缀、压缩空白。
 *
 * Parameters:
 *   - name: 原始姓名
 *
 * Returns: string - 标准化后的姓名
 */
func NormalizeName(name string) string {
	lowered := strokeReplacer.Replace(strings.ToLower(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		stripped = lowered
	}

	stripped = titlePattern.ReplaceAllString(stripped, "")
	return strings.Join(strings.Fields(stripped), " ")
}

/**
 * NamesMatch 判断两个姓名是否指向同一人
 *
 * 标准化后任一方包含另一方即视为匹配
 */
func NamesMatch(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

/**
 * TeacherMatcher 主讲教师判定器
 *
 * 主讲教师姓名只标准化一次，逐课次判定时复用
 */
type TeacherMatcher struct {
	main string
}

/**
 * NewTeacherMatcher 创建主讲教师判定器
 *
 * Parameters:
 *   - mainTeacher: 元数据中的教师姓名
 *
 * Returns: *TeacherMatcher - 判定器
 */
func NewTeacherMatcher(mainTeacher string) *TeacherMatcher {
	return &TeacherMatcher{main: NormalizeName(mainTeacher)}
}

/**
 * IsMain 课次教师是否归属主讲教师
 *
 * 空值或占位值一律归属主讲教师
 */
func (m *TeacherMatcher) IsMain(teacher string) bool {
	if models.IsPlaceholder(teacher) {
		return true
	}
	n := NormalizeName(teacher)
	return strings.Contains(n, m.main) || strings.Contains(m.main, n)
}
