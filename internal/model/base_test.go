package model

import "testing"

func TestActivityEntries_ScanValue(t *testing.T) {
	in := ActivityEntries{
		{Activity: "Water sampling at Umlazi", Hours: 3.5},
		{Activity: "Food premises inspection", Hours: 4},
	}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}

	var out ActivityEntries
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(out) != 2 || out[0].Activity != in[0].Activity || out[1].Hours != 4 {
		t.Errorf("往返结果不一致: %+v", out)
	}
	if out.TotalHours() != 7.5 {
		t.Errorf("期望合计 7.5，实际 %v", out.TotalHours())
	}
}

func TestActivityEntries_ScanEdgeCases(t *testing.T) {
	var a ActivityEntries
	if err := a.Scan(nil); err != nil || len(a) != 0 {
		t.Errorf("nil 应解析为空切片: %v %v", a, err)
	}
	if err := a.Scan(""); err != nil || len(a) != 0 {
		t.Errorf("空字符串应解析为空切片: %v %v", a, err)
	}
	if err := a.Scan(42); err == nil {
		t.Error("不支持的类型应返回错误")
	}
	if err := a.Scan("{not json"); err == nil {
		t.Error("非法 JSON 应返回错误")
	}

	var nilEntries ActivityEntries
	v, _ := nilEntries.Value()
	if v != "[]" {
		t.Errorf("nil 应序列化为 []，实际 %v", v)
	}
}

func TestIsValidApplicationStatus(t *testing.T) {
	for _, s := range []string{"Pending", "Accepted", "Rejected"} {
		if !IsValidApplicationStatus(s) {
			t.Errorf("%s 应合法", s)
		}
	}
	for _, s := range []string{"", "accepted", "Approved"} {
		if IsValidApplicationStatus(s) {
			t.Errorf("%q 不应合法", s)
		}
	}
}
