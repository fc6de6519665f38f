package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// acronymPattern 已是缩写的词（大写字母或数字，至少两位）
var acronymPattern = regexp.MustCompile(`^[\p{Lu}0-9]{2,}$`)

/**
 * Abbreviate 为课程名生成缩写
 *
 * 按空格分词：连接符 - 与 & 原样保留，已是缩写的词与括号包裹的词原样保留，
 * 其余取首字母大写。例如 "Lập trình Web (CLC)" → "LTW(CLC)"。
 */
func Abbreviate(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, " ") {
		switch {
		case part == "":
		case part == "-" || part == "&":
			b.WriteString(part)
		case acronymPattern.MatchString(part):
			b.WriteString(part)
		case strings.HasPrefix(part, "(") && strings.HasSuffix(part, ")"):
			b.WriteString(part)
		default:
			r, _ := utf8.DecodeRuneInString(part)
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

/**
 * SuggestAbbreviations 为没有缩写的课程名补充建议缩写
 *
 * 已有的非空缩写不会被覆盖；返回新的映射，入参不变。
 *
 * Parameters:
 *   - names: 课程名列表
 *   - existing: 现有缩写表（可为 nil）
 *
 * Returns: map[string]string - 合并后的缩写表
 */
func SuggestAbbreviations(names []string, existing map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(names))
	for k, v := range existing {
		out[k] = v
	}
	for _, name := range names {
		if strings.TrimSpace(out[name]) != "" {
			continue
		}
		if abbr := Abbreviate(name); abbr != "" {
			out[name] = abbr
		}
	}
	return out
}
