package gorad

// PullPush reconciles multi-resolution radiance and potential across the
// whole subtree rooted at each of roots: a bottom-up pull averages (or
// basis-projects) child coefficients up into parents and clusters, then a
// top-down push adds each parent's received contribution back into its
// children (§4.9 "push-pull"). The Engine calls this once per Step, after
// transport and before the leaf reflection update, so every level of the
// hierarchy sees a consistent radiance estimate before the next
// refinement pass evaluates links against it.
func (h *Hierarchy) PullPush(roots ...ElementID) {
	for _, r := range roots {
		h.pull(r)
	}
	for _, r := range roots {
		h.push(r)
	}
}

// pull reconciles id's own radiance/received/unshot/potential fields from
// its children, recursing first so a grandparent always sees its
// children's already-reconciled state (§4.9 "bottom-up pull").
func (h *Hierarchy) pull(id ElementID) {
	e := h.Element(id)
	if e.IsCluster() {
		for _, c := range e.irregular {
			h.pull(c)
		}
		h.pullCluster(id)
		return
	}
	if !e.hasChildren {
		return
	}
	for _, c := range e.children {
		h.pull(c)
	}
	h.pullSurface(id)
}

// pullCluster reconciles a cluster from its (possibly mixed surface and
// cluster) irregular children, area-weighting every quantity (§3: "the
// sum of a cluster's child un-shot radiance weighted by child area
// divided by cluster area equals the cluster's un-shot radiance").
func (h *Hierarchy) pullCluster(id ElementID) {
	e := h.Element(id)
	haveUnshot := e.unshot != nil
	var totalArea float32
	var rad, recv, unshot RGB
	var pot, recvPot, unshotPot float32
	for _, cid := range e.irregular {
		c := h.Element(cid)
		if c.area <= 0 {
			continue
		}
		totalArea += c.area
		if len(c.radiance) > 0 {
			rad = AddRGB(rad, ScaleRGB(c.area, c.radiance[0]))
		}
		if len(c.received) > 0 {
			recv = AddRGB(recv, ScaleRGB(c.area, c.received[0]))
		}
		if haveUnshot && len(c.unshot) > 0 {
			unshot = AddRGB(unshot, ScaleRGB(c.area, c.unshot[0]))
		}
		pot += c.area * c.potential
		recvPot += c.area * c.receivedPotential
		unshotPot += c.area * c.unshotPotential
	}
	if totalArea <= 0 {
		return
	}
	inv := 1 / totalArea
	if len(e.radiance) > 0 {
		e.radiance[0] = ScaleRGB(inv, rad)
	}
	if len(e.received) > 0 {
		e.received[0] = ScaleRGB(inv, recv)
	}
	if haveUnshot && len(e.unshot) > 0 {
		e.unshot[0] = ScaleRGB(inv, unshot)
	}
	e.potential = pot * inv
	e.receivedPotential = recvPot * inv
	e.unshotPotential = unshotPot * inv
}

// pullSurface reconciles a surface element with regular children from
// those children's basis coefficients, via the basis-projected
// pullRadiance/pullPotential primitives (§4.1, §4.9).
func (h *Hierarchy) pullSurface(id ElementID) {
	e := h.Element(id)
	haveUnshot := e.unshot != nil
	var childRad, childRecv, childUnshot [4][]RGB
	var ups [4]Affine2
	var pots, recvPots, unshotPots [4]float32
	var present [4]bool
	for i, cid := range e.children {
		if cid == NoElement {
			continue
		}
		c := h.Element(cid)
		if !c.hasUp {
			continue
		}
		present[i] = true
		ups[i] = c.up
		childRad[i] = c.radiance
		childRecv[i] = c.received
		if haveUnshot {
			childUnshot[i] = c.unshot
		}
		pots[i] = c.potential
		recvPots[i] = c.receivedPotential
		unshotPots[i] = c.unshotPotential
	}
	if rad := pullRadiance(e.domain, h.cfg.BasisType, childRad, ups); len(e.radiance) > 0 {
		copy(e.radiance, rad)
	}
	if recv := pullRadiance(e.domain, h.cfg.BasisType, childRecv, ups); len(e.received) > 0 {
		copy(e.received, recv)
	}
	if haveUnshot {
		if un := pullRadiance(e.domain, h.cfg.BasisType, childUnshot, ups); len(e.unshot) > 0 {
			copy(e.unshot, un)
		}
	}
	e.potential = pullPotential(pots, present)
	e.receivedPotential = pullPotential(recvPots, present)
	e.unshotPotential = pullPotential(unshotPots, present)
}

// push distributes id's received radiance and potential down into its
// children, adding it to each child's own received contribution, so a
// coarse-level gather still reaches elements refined below it (§4.9
// "top-down push").
func (h *Hierarchy) push(id ElementID) {
	e := h.Element(id)
	if e.IsCluster() {
		h.pushToIrregularChildren(id)
		for _, c := range e.irregular {
			h.push(c)
		}
		return
	}
	if !e.hasChildren {
		return
	}
	h.pushToRegularChildren(id)
	for _, c := range e.children {
		h.push(c)
	}
}

// pushToIrregularChildren broadcasts a cluster's constant received
// radiance and potential unweighted to every irregular child: the
// cluster basis is always constant (§3), so there is no sub-domain to
// restrict to, only a flat additive contribution.
func (h *Hierarchy) pushToIrregularChildren(id ElementID) {
	e := h.Element(id)
	if len(e.received) == 0 {
		return
	}
	contribution := e.received[0]
	for _, cid := range e.irregular {
		c := h.Element(cid)
		if len(c.received) > 0 {
			c.received[0] = AddRGB(c.received[0], contribution)
		}
		c.receivedPotential += pushPotential(e.receivedPotential)
	}
}

// pushToRegularChildren restricts a surface element's received radiance
// to each regular child's sub-domain via pushRadiance (the same
// projection used to seed a freshly subdivided child's initial
// radiance, §4.1), adding the restriction to the child's own received
// coefficients rather than overwriting them.
func (h *Hierarchy) pushToRegularChildren(id ElementID) {
	e := h.Element(id)
	if len(e.received) == 0 {
		return
	}
	for _, cid := range e.children {
		if cid == NoElement {
			continue
		}
		c := h.Element(cid)
		if !c.hasUp {
			continue
		}
		contribution := pushRadiance(e.domain, h.cfg.BasisType, e.received, c.up)
		for i := range c.received {
			if i < len(contribution) {
				c.received[i] = AddRGB(c.received[i], contribution[i])
			}
		}
		c.receivedPotential += pushPotential(e.receivedPotential)
	}
}
