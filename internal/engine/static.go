package engine

import (
	"context"
	"fmt"

	"github.com/tatianab/truth-eroder/internal/models"
)

// Static answers from canned text and never fails. It is used offline and
// as the fallback for Engine.
type Static struct{}

var staticNarration = map[models.Region]string{
	models.RegionSenses: "感官的废墟里，颜色与声音正在失去各自的名字。",
	models.RegionLogic:  "因果在这里打结，每一步都踩在一条被否定的推论上。",
	models.RegionTruth:  "所有定义在此汇聚，又在此熄灭。",
}

func (Static) Flavor(_ context.Context, req FlavorRequest) (Flavor, error) {
	desc := req.Description
	if desc == "" {
		desc = "一个正在剥离现实定义的块状物。"
	}
	narr, ok := staticNarration[req.Region]
	if !ok {
		narr = "现实变得一片空白，你无法理解眼前的存在。"
	}
	if req.Sanity < 20 {
		narr = fmt.Sprintf("%s……□□……", narr)
	}
	return Flavor{Enemy: desc, Narration: narr}, nil
}
