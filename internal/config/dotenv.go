package config

import (
	"bufio"
	"io"
	"strings"
)

// ReadDotEnv 解析 .env 内容，返回 KEY=VALUE 形式的条目（与 os.Environ 同构，顺序保持）。
// 空行与 # 注释跳过；可带 "export " 前缀；无 '=' 或键为空的行忽略。
// 成对引号被去除，双引号内还原 \n \t \r \" \\。
func ReadDotEnv(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		out = append(out, k+"="+dequote(strings.TrimSpace(v)))
	}
	return out, sc.Err()
}

var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\"`, `"`, `\\`, `\`)

func dequote(v string) string {
	if len(v) < 2 || v[0] != v[len(v)-1] {
		return v
	}
	switch v[0] {
	case '\'':
		return v[1 : len(v)-1]
	case '"':
		return escapes.Replace(v[1 : len(v)-1])
	}
	return v
}
