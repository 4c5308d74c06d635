/*
Package mnl implements multinomial logit (MNL) discrete choice models for
panel data with ragged per-period choice sets, with optional sum-to-zero
brand intercepts.

The choice sets are stored as a flat covariate arena with per-period offsets
(see ChoiceData).  The model exposes its log-likelihood, score, and Hessian
for use by an external optimizer or sampler; all three are pure functions of
the parameter vector and may be called concurrently on shared data.
*/
package mnl
