package cmd

type Runtime struct {
	Dashboard *string
	Debug     *bool
}

func (r Runtime) DashboardName() string {
	if r.Dashboard == nil {
		return ""
	}
	return *r.Dashboard
}

func (r Runtime) DebugEnabled() bool {
	return r.Debug != nil && *r.Debug
}
