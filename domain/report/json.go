package report

import (
	"encoding/json"
)

// The undefined marker is NaN in memory, which encoding/json refuses to
// emit. On the wire it becomes null and round-trips back to the marker.

func toNullable(v float64) *float64 {
	if IsUndefined(v) {
		return nil
	}
	return &v
}

func fromNullable(p *float64) float64 {
	if p == nil {
		return Undefined()
	}
	return *p
}

type quantileValueJSON struct {
	Prob  float64  `json:"prob"`
	Value *float64 `json:"value"`
}

func (q QuantileValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(quantileValueJSON{Prob: q.Prob, Value: toNullable(q.Value)})
}

func (q *QuantileValue) UnmarshalJSON(data []byte) error {
	var raw quantileValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Prob = raw.Prob
	q.Value = fromNullable(raw.Value)
	return nil
}

type groupComparisonJSON struct {
	GroupID           int             `json:"group_id"`
	Empirical         *float64        `json:"empirical"`
	Rank              *float64        `json:"rank"`
	ZScore            *float64        `json:"z_score"`
	SimMean           *float64        `json:"sim_mean"`
	SimStdDev         *float64        `json:"sim_std_dev"`
	SimQuantiles      []QuantileValue `json:"sim_quantiles"`
	DefinedReplicates int             `json:"defined_replicates"`
}

func (g GroupComparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupComparisonJSON{
		GroupID:           g.GroupID,
		Empirical:         toNullable(g.Empirical),
		Rank:              toNullable(g.Rank),
		ZScore:            toNullable(g.ZScore),
		SimMean:           toNullable(g.SimMean),
		SimStdDev:         toNullable(g.SimStdDev),
		SimQuantiles:      g.SimQuantiles,
		DefinedReplicates: g.DefinedReplicates,
	})
}

func (g *GroupComparison) UnmarshalJSON(data []byte) error {
	var raw groupComparisonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = GroupComparison{
		GroupID:           raw.GroupID,
		Empirical:         fromNullable(raw.Empirical),
		Rank:              fromNullable(raw.Rank),
		ZScore:            fromNullable(raw.ZScore),
		SimMean:           fromNullable(raw.SimMean),
		SimStdDev:         fromNullable(raw.SimStdDev),
		SimQuantiles:      raw.SimQuantiles,
		DefinedReplicates: raw.DefinedReplicates,
	}
	return nil
}

type summaryDistributionJSON struct {
	Statistic  string       `json:"statistic"`
	GroupCount int          `json:"group_count"`
	Values     [][]*float64 `json:"values"`
}

func (d SummaryDistribution) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(d.Values))
	for i, row := range d.Values {
		values[i] = make([]*float64, len(row))
		for j := range row {
			values[i][j] = toNullable(row[j])
		}
	}
	return json.Marshal(summaryDistributionJSON{
		Statistic:  d.Statistic,
		GroupCount: d.GroupCount,
		Values:     values,
	})
}

func (d *SummaryDistribution) UnmarshalJSON(data []byte) error {
	var raw summaryDistributionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Statistic = raw.Statistic
	d.GroupCount = raw.GroupCount
	d.Values = make([][]float64, len(raw.Values))
	for i, row := range raw.Values {
		d.Values[i] = make([]float64, len(row))
		for j := range row {
			d.Values[i][j] = fromNullable(row[j])
		}
	}
	return nil
}
