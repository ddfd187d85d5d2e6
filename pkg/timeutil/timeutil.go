package timeutil

import "time"

// 线上时间戳格式：整秒输出；输入额外接受小数秒变体
const (
	Layout         = "2006-01-02T15:04:05Z"
	LayoutFraction = "2006-01-02T15:04:05.999999Z"
)

// Parse 按整秒或小数秒格式解析 UTC 时间戳
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(LayoutFraction, s)
}

// Format 输出整秒 UTC 时间戳
func Format(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(Layout)
}
