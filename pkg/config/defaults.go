package config

import "github.com/XiaoConstantine/evopipe/pkg/gp"

// Built-in operator configurations modeled on the "light" scikit-learn search
// spaces: fast estimators only, with the shared preprocessor and selector
// block. Callers that want a custom space load a YAML file instead.

// ClassifierConfigLight is the default classification search space.
func ClassifierConfigLight() map[string]gp.OperatorDef {
	defs := map[string]gp.OperatorDef{
		"GaussianNB": {
			Capability: gp.CapabilityClassifier,
			Import:     "sklearn.naive_bayes",
		},
		"BernoulliNB": {
			Capability: gp.CapabilityClassifier,
			Import:     "sklearn.naive_bayes",
			Params: map[string][]interface{}{
				"alpha":     {1e-3, 1e-2, 1e-1, 1.0, 10.0, 100.0},
				"fit_prior": {true, false},
			},
		},
		"MultinomialNB": {
			Capability: gp.CapabilityClassifier,
			Import:     "sklearn.naive_bayes",
			Params: map[string][]interface{}{
				"alpha":     {1e-3, 1e-2, 1e-1, 1.0, 10.0, 100.0},
				"fit_prior": {true, false},
			},
		},
		"DecisionTreeClassifier": {
			Capability: gp.CapabilityClassifier,
			Import:     "sklearn.tree",
			Params: map[string][]interface{}{
				"criterion":         {"gini", "entropy"},
				"max_depth":         expandIntRange(1, 10, 1),
				"min_samples_split": expandIntRange(2, 20, 1),
				"min_samples_leaf":  expandIntRange(1, 20, 1),
			},
		},
		"KNeighborsClassifier": {
			Capability: gp.CapabilityClassifier,
			Import:     "sklearn.neighbors",
			Params: map[string][]interface{}{
				"n_neighbors": expandIntRange(1, 100, 1),
				"weights":     {"uniform", "distance"},
				"p":           {1, 2},
			},
		},
		"LogisticRegression": {
			Capability: gp.CapabilityClassifier,
			Import:     "sklearn.linear_model",
			Params: map[string][]interface{}{
				"penalty": {"l1", "l2"},
				"C":       {1e-4, 1e-3, 1e-2, 1e-1, 0.5, 1.0, 5.0, 10.0, 15.0, 20.0, 25.0},
				"dual":    {true, false},
			},
		},
	}
	for name, def := range transformConfigLight() {
		defs[name] = def
	}
	return defs
}

// RegressorConfigLight is the default regression search space.
func RegressorConfigLight() map[string]gp.OperatorDef {
	defs := map[string]gp.OperatorDef{
		"ElasticNetCV": {
			Capability: gp.CapabilityRegressor,
			Import:     "sklearn.linear_model",
			Params: map[string][]interface{}{
				"l1_ratio": expandFloatRange(0.0, 1.01, 0.05),
				"tol":      {1e-5, 1e-4, 1e-3, 1e-2, 1e-1},
			},
		},
		"DecisionTreeRegressor": {
			Capability: gp.CapabilityRegressor,
			Import:     "sklearn.tree",
			Params: map[string][]interface{}{
				"max_depth":         expandIntRange(1, 10, 1),
				"min_samples_split": expandIntRange(2, 20, 1),
				"min_samples_leaf":  expandIntRange(1, 20, 1),
			},
		},
		"KNeighborsRegressor": {
			Capability: gp.CapabilityRegressor,
			Import:     "sklearn.neighbors",
			Params: map[string][]interface{}{
				"n_neighbors": expandIntRange(1, 100, 1),
				"weights":     {"uniform", "distance"},
				"p":           {1, 2},
			},
		},
		"LassoLarsCV": {
			Capability: gp.CapabilityRegressor,
			Import:     "sklearn.linear_model",
			Params: map[string][]interface{}{
				"normalize": {true, false},
			},
		},
		"RidgeCV": {
			Capability: gp.CapabilityRegressor,
			Import:     "sklearn.linear_model",
		},
		"LinearSVR": {
			Capability: gp.CapabilityRegressor,
			Import:     "sklearn.svm",
			Params: map[string][]interface{}{
				"loss":    {"epsilon_insensitive", "squared_epsilon_insensitive"},
				"dual":    {true, false},
				"tol":     {1e-5, 1e-4, 1e-3, 1e-2, 1e-1},
				"C":       {1e-4, 1e-3, 1e-2, 1e-1, 0.5, 1.0, 5.0, 10.0, 15.0, 20.0, 25.0},
				"epsilon": {1e-4, 1e-3, 1e-2, 1e-1, 1.0},
			},
		},
	}
	for name, def := range transformConfigLight() {
		defs[name] = def
	}
	return defs
}

// transformConfigLight is the preprocessor and selector block shared by both
// default spaces.
func transformConfigLight() map[string]gp.OperatorDef {
	return map[string]gp.OperatorDef{
		"Binarizer": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "sklearn.preprocessing",
			Params: map[string][]interface{}{
				"threshold": expandFloatRange(0.0, 1.01, 0.05),
			},
		},
		"MaxAbsScaler": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "sklearn.preprocessing",
		},
		"MinMaxScaler": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "sklearn.preprocessing",
		},
		"Normalizer": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "sklearn.preprocessing",
			Params: map[string][]interface{}{
				"norm": {"l1", "l2", "max"},
			},
		},
		"PCA": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "sklearn.decomposition",
			Params: map[string][]interface{}{
				"svd_solver":     {"randomized"},
				"iterated_power": expandIntRange(1, 10, 1),
			},
		},
		"RobustScaler": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "sklearn.preprocessing",
		},
		"StandardScaler": {
			Capability: gp.CapabilityPreprocessor,
			Import:     "sklearn.preprocessing",
		},
		"SelectFwe": {
			Capability: gp.CapabilitySelector,
			Import:     "sklearn.feature_selection",
			Params: map[string][]interface{}{
				"alpha": expandFloatRange(0.0, 0.05, 0.001),
			},
		},
		"SelectPercentile": {
			Capability: gp.CapabilitySelector,
			Import:     "sklearn.feature_selection",
			Params: map[string][]interface{}{
				"percentile": expandIntRange(1, 99, 1),
			},
		},
		"VarianceThreshold": {
			Capability: gp.CapabilitySelector,
			Import:     "sklearn.feature_selection",
			Params: map[string][]interface{}{
				"threshold": {1e-4, 5e-4, 1e-3, 5e-3, 1e-2, 5e-2, 1e-1, 0.2, 0.3, 0.4, 0.5, 0.75, 1.0, 2.0},
			},
		},
	}
}
